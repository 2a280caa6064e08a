package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/database"
	"github.com/sayu/sayu-backend/internal/logger"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
	"github.com/sayu/sayu-backend/internal/repository"
	"github.com/sayu/sayu-backend/internal/vector"
)

func main() {
	var (
		perType int
		withDemo bool
	)
	flag.IntVar(&perType, "content-per-type", 3, "Sample artworks and exhibitions to seed around each archetype (0 to skip)")
	flag.BoolVar(&withDemo, "demo-users", false, "Also seed one demo user per type with a profile and match signal")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	vectors := repository.NewVectorRepository(pool, cfg.EmbeddingDim)
	archetypes := archetypeVectors(cfg.EmbeddingDim)

	log.Info().Int("dim", cfg.EmbeddingDim).Msg("=== Seeding 16 archetype vectors ===")
	for _, code := range personality.AllTypeCodes() {
		if err := vectors.Upsert(ctx, vector.ArchetypeKey(code), archetypes[code]); err != nil {
			log.Fatal().Err(err).Str("type_code", string(code)).Msg("Failed to seed archetype")
		}
	}

	if perType > 0 {
		items := sampleContent(archetypes, perType)
		log.Info().Int("count", len(items)).Msg("=== Seeding sample content ===")
		for i := range items {
			if err := vectors.UpsertContent(ctx, &items[i]); err != nil {
				log.Fatal().Err(err).Str("item_id", items[i].ItemID).Msg("Failed to seed content")
			}
		}
	}

	if withDemo {
		profiles := repository.NewProfileRepository(pool)
		signals := repository.NewSignalRepository(pool)
		users := demoUsers()
		log.Info().Int("count", len(users)).Msg("=== Seeding demo users ===")

		for _, u := range users {
			result := personality.Classify(demoScores(u.typeCode))
			profile := &model.PersonalityProfile{
				UserID:     u.signal.UserID,
				TypeCode:   result.TypeCode,
				Confidence: result.Confidence,
				AxisScores: demoScores(u.typeCode),
				Axes:       result.Axes,
				Vector:     archetypes[u.typeCode],
				SessionID:  uuid.New(),
				UpdatedAt:  time.Now().UTC(),
			}
			if err := profiles.Upsert(ctx, profile); err != nil {
				log.Fatal().Err(err).Str("user_id", u.signal.UserID).Msg("Failed to seed profile")
			}
			if err := signals.Upsert(ctx, &u.signal); err != nil {
				log.Fatal().Err(err).Str("user_id", u.signal.UserID).Msg("Failed to seed signal")
			}
		}
	}

	log.Info().Msg("Seed completed")
}

// demoScores gives each letter of code a clear lead over its pair partner.
func demoScores(code personality.TypeCode) personality.Scores {
	scores := personality.NewScores()
	for i, p := range personality.Pairs {
		winner := personality.Axis(code[i : i+1])
		scores[winner] = 9
		if winner == p.First {
			scores[p.Second] = 3
		} else {
			scores[p.First] = 3
		}
	}
	return scores
}
