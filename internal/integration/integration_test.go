package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/yuyuyu0706/quiz-practice/internal/app"
	"github.com/yuyuyu0706/quiz-practice/internal/domain"
	pgcatalog "github.com/yuyuyu0706/quiz-practice/internal/infra/postgres"
	pgmigrations "github.com/yuyuyu0706/quiz-practice/internal/infra/postgres/migrations"
	redisinfra "github.com/yuyuyu0706/quiz-practice/internal/infra/redis"
)

func TestQuizRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	catalog := pgcatalog.NewCatalog(pool)
	if err := catalog.Replace(ctx, sampleCatalog()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	cached := redisinfra.NewCatalogCache(redisClient, catalog, 5*time.Minute)
	questions, err := cached.Load(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	sessionStore := redisinfra.NewSessionStore(redisClient)
	tracker, err := app.NewProgressTracker(ctx, redisinfra.NewProgressStore(redisClient))
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	engine := app.NewEngine(questions, sessionStore, tracker)

	settings := domain.Settings{Sections: []string{"1"}, Mode: domain.ModeNormal, Count: "all"}
	if _, err := engine.Start(ctx, domain.ModeNormal, settings); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := engine.Submit(ctx, "q1", correctLabel(t, ctx, engine)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := engine.Suspend(ctx); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	// A second engine over the same Redis stores stands in for a restart.
	restartedTracker, err := app.NewProgressTracker(ctx, redisinfra.NewProgressStore(redisClient))
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	restarted := app.NewEngine(questions, sessionStore, restartedTracker)
	session, err := restarted.Resume(ctx)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if session == nil || !session.Graded["q1"] {
		t.Fatalf("resumed session lost state: %+v", session)
	}

	if _, err := restarted.Move(ctx, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := restarted.Submit(ctx, "q2", correctLabel(t, ctx, restarted)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	summary, err := restarted.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if summary.CorrectCount != 2 || summary.Total != 2 || summary.OverallRatePercent != 100 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if restarted.HasSaved(ctx) {
		t.Fatalf("finished session must not be resumable")
	}

	record, ok := restartedTracker.Get("q1")
	if !ok || record.CorrectCount != 1 {
		t.Fatalf("progress not persisted: %+v", record)
	}
}

func correctLabel(t *testing.T, ctx context.Context, engine *app.Engine) string {
	t.Helper()
	view, err := engine.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	want := view.Question.Choices[view.Question.Answer]
	for _, c := range view.Choices {
		if c.Text == want {
			return c.Label
		}
	}
	t.Fatalf("correct choice not rendered")
	return ""
}

func sampleCatalog() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Section:      "1",
			SectionTitle: "Basics",
			Prompt:       "What is 2 + 2?",
			Choices:      map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
			Answer:       "B",
			Explanation:  "Two plus two is four.",
		},
		{
			ID:           "q2",
			Section:      "1",
			SectionTitle: "Basics",
			Prompt:       "What is 3 * 3?",
			Choices:      map[string]string{"A": "6", "B": "8", "C": "9", "D": "12"},
			Answer:       "C",
			Explanation:  "Three squared is nine.",
		},
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
