package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/types"
	"github.com/JairAlexey/moviematch-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "moviematch", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Movie{},
		&types.UserMovie{},
		&types.UserConnection{},
		&types.MovieRecommendation{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_user_movies_user_id",
			stmt: `ALTER TABLE "user_movies"
				ADD CONSTRAINT "fk_user_movies_user_id"
				FOREIGN KEY ("user_id") REFERENCES "users"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_user_movies_movie_id",
			stmt: `ALTER TABLE "user_movies"
				ADD CONSTRAINT "fk_user_movies_movie_id"
				FOREIGN KEY ("movie_id") REFERENCES "movies"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_user_connections_user1_id",
			stmt: `ALTER TABLE "user_connections"
				ADD CONSTRAINT "fk_user_connections_user1_id"
				FOREIGN KEY ("user1_id") REFERENCES "users"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_user_connections_user2_id",
			stmt: `ALTER TABLE "user_connections"
				ADD CONSTRAINT "fk_user_connections_user2_id"
				FOREIGN KEY ("user2_id") REFERENCES "users"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_movie_recommendations_recommender_id",
			stmt: `ALTER TABLE "movie_recommendations"
				ADD CONSTRAINT "fk_movie_recommendations_recommender_id"
				FOREIGN KEY ("recommender_id") REFERENCES "users"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_movie_recommendations_receiver_id",
			stmt: `ALTER TABLE "movie_recommendations"
				ADD CONSTRAINT "fk_movie_recommendations_receiver_id"
				FOREIGN KEY ("receiver_id") REFERENCES "users"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_movie_recommendations_movie_id",
			stmt: `ALTER TABLE "movie_recommendations"
				ADD CONSTRAINT "fk_movie_recommendations_movie_id"
				FOREIGN KEY ("movie_id") REFERENCES "movies"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("failed to check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
