// Package main provides a tool to seed the database with sample readings.
//
// This creates a few days of daily readings with synthesized timing tables,
// rebuilds the search index, and optionally creates listening history for a
// couple of demo clients. With --demo it replays today's gospel through a
// synthetic player and prints each highlighted word, which is handy for
// eyeballing the sync engine without a real audio client.
//
// Usage:
//
//	DATA_PATH=~/Lectio/data go run ./cmd/seed
//	DATA_PATH=~/Lectio/data go run ./cmd/seed --with-history  # Also create listening records
//	DATA_PATH=~/Lectio/data go run ./cmd/seed --demo          # Replay today's gospel
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/highlight"
	"github.com/lectioapp/lectio-server/internal/id"
	"github.com/lectioapp/lectio-server/internal/playback"
	"github.com/lectioapp/lectio-server/internal/search"
	"github.com/lectioapp/lectio-server/internal/service"
	"github.com/lectioapp/lectio-server/internal/store"
	"github.com/lectioapp/lectio-server/internal/store/sqlite"
	"github.com/lectioapp/lectio-server/internal/timing"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

var (
	withHistory = flag.Bool("with-history", false, "Create sample listening records for demo clients")
	demo        = flag.Bool("demo", false, "Replay today's gospel through a synthetic player")
)

// seedReading is one passage to insert for a given day.
type seedReading struct {
	rt        domain.ReadingType
	reference string
	title     string
	text      string
}

// seedDays holds reading sets for today and the previous two days,
// indexed by day offset (0 = today).
var seedDays = [][]seedReading{
	{
		{
			rt:        domain.ReadingFirst,
			reference: "Is 55:10-11",
			title:     "The word that goes forth from my mouth",
			text:      "For just as from the heavens the rain and snow come down and do not return there till they have watered the earth, making it fertile and fruitful, so shall my word be that goes forth from my mouth.",
		},
		{
			rt:        domain.ReadingPsalm,
			reference: "Ps 23:1-4",
			title:     "The Lord is my shepherd",
			text:      "The Lord is my shepherd; there is nothing I shall want. In green pastures he makes me lie down; to still waters he leads me; he restores my soul.",
		},
		{
			rt:        domain.ReadingSecond,
			reference: "Rom 8:28-30",
			title:     "All things work for good",
			text:      "We know that all things work for good for those who love God, who are called according to his purpose.",
		},
		{
			rt:        domain.ReadingGospel,
			reference: "Jn 1:1-5",
			title:     "The Word became flesh",
			text:      "In the beginning was the Word, and the Word was with God, and the Word was God. He was in the beginning with God. All things came to be through him, and without him nothing came to be.",
		},
	},
	{
		{
			rt:        domain.ReadingFirst,
			reference: "Gn 1:1-5",
			title:     "In the beginning",
			text:      "In the beginning, when God created the heavens and the earth, the earth was a formless wasteland, and darkness covered the abyss, while a mighty wind swept over the waters.",
		},
		{
			rt:        domain.ReadingPsalm,
			reference: "Ps 121:1-2",
			title:     "Our help is from the Lord",
			text:      "I lift up my eyes toward the mountains; whence shall help come to me? My help is from the Lord, who made heaven and earth.",
		},
		{
			rt:        domain.ReadingGospel,
			reference: "Mt 5:1-10",
			title:     "The Beatitudes",
			text:      "Blessed are the poor in spirit, for theirs is the kingdom of heaven. Blessed are they who mourn, for they will be comforted. Blessed are the meek, for they will inherit the land.",
		},
	},
	{
		{
			rt:        domain.ReadingFirst,
			reference: "Ex 3:13-15",
			title:     "I am who I am",
			text:      "God replied to Moses: I am who I am. This is what you will tell the Israelites: I AM has sent me to you.",
		},
		{
			rt:        domain.ReadingPsalm,
			reference: "Ps 103:1-2",
			title:     "Bless the Lord, my soul",
			text:      "Bless the Lord, my soul; all my being, bless his holy name. Bless the Lord, my soul; and do not forget all his gifts.",
		},
		{
			rt:        domain.ReadingGospel,
			reference: "Lk 15:3-7",
			title:     "The lost sheep",
			text:      "What man among you having a hundred sheep and losing one of them would not leave the ninety-nine in the desert and go after the lost one until he finds it?",
		},
	},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Lectio/data")
	}

	fmt.Printf("Opening data directory: %s\n", dataPath)

	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Keep library chatter out of the seed output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(filepath.Join(dataPath, "badger"), logger, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	history, err := sqlite.Open(filepath.Join(dataPath, "history.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer history.Close()

	idx, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dataPath, "search"), Logger: logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer idx.Close()

	readings := service.NewReadingService(s, idx, store.NewNoopEmitter(), logger)

	ctx := context.Background()
	now := time.Now()

	var seeded []*domain.Reading

	for offset, dayReadings := range seedDays {
		date := now.AddDate(0, 0, -offset).Format("2006-01-02")
		fmt.Printf("\n=== Seeding %s ===\n", date)

		for _, sr := range dayReadings {
			// Re-running the seed is fine; skip what already exists.
			if existing, err := s.GetReadingByDate(ctx, date, sr.rt); err == nil {
				fmt.Printf("  %s (%s) already exists, skipping\n", sr.reference, sr.rt)
				seeded = append(seeded, existing)
				continue
			}

			reading := domain.NewReading(id.MustGenerate("read"), sr.rt, date, sr.reference, sr.text)
			reading.Title = sr.title

			if err := readings.CreateReading(ctx, reading); err != nil {
				log.Fatalf("Failed to create reading %s: %v", sr.reference, err)
			}

			raw := synthesizeTiming(reading)
			if err := readings.LoadTimingTable(ctx, raw); err != nil {
				log.Fatalf("Failed to load timing for %s: %v", sr.reference, err)
			}

			fmt.Printf("  Created %s (%s): %d words, %d ms\n",
				sr.reference, sr.rt, len(raw.Words), raw.DurationMs)
			seeded = append(seeded, reading)
		}
	}

	indexed, err := readings.RebuildSearchIndex(ctx)
	if err != nil {
		log.Fatalf("Failed to rebuild search index: %v", err)
	}
	fmt.Printf("\nIndexed %d readings for search\n", indexed)

	if *withHistory {
		createHistory(ctx, history, seeded)
	}

	if *demo {
		runDemo(ctx, s, logger, now.Format("2006-01-02"))
	}

	fmt.Println("\nSeeding complete!")
}

// synthesizeTiming builds a timing table for a reading by pacing its text
// at roughly spoken-word speed. Word length drives duration so the demo
// feed feels natural rather than metronomic.
func synthesizeTiming(r *domain.Reading) *timingdata.RawTable {
	const (
		baseMs    = 160 // per word floor
		perRuneMs = 45
		gapMs     = 70
	)

	var words []timingdata.RawWord
	cursor := int64(250) // lead-in before the first word

	offset := 0
	for offset < len(r.Text) {
		// Skip whitespace, tracking byte offsets into the stored text.
		for offset < len(r.Text) && isSpace(r.Text[offset]) {
			offset++
		}
		if offset >= len(r.Text) {
			break
		}
		start := offset
		for offset < len(r.Text) && !isSpace(r.Text[offset]) {
			offset++
		}

		word := r.Text[start:offset]
		duration := int64(baseMs + perRuneMs*len([]rune(word)))

		words = append(words, timingdata.RawWord{
			Word:       word,
			StartMs:    cursor,
			EndMs:      cursor + duration,
			Index:      len(words),
			CharOffset: start,
			CharLength: offset - start,
		})
		cursor += duration + gapMs
	}

	return &timingdata.RawTable{
		ReadingID:   r.ID,
		ReadingType: string(r.Type),
		DurationMs:  cursor + 400, // trailing silence
		Words:       words,
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

// demoClients are client IDs used for generated listening history.
var demoClients = []string{"cli_seed_maria", "cli_seed_joseph"}

// createHistory writes listening records for the demo clients so the
// history and stats endpoints return something meaningful.
func createHistory(ctx context.Context, history *sqlite.Store, readings []*domain.Reading) {
	fmt.Println("\n=== Creating Listening History ===")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0

	for _, clientID := range demoClients {
		for _, r := range readings {
			// Not every client listened to every reading.
			if rng.Float32() > 0.7 {
				continue
			}

			startedAt := time.Now().Add(-time.Duration(rng.Intn(72)) * time.Hour)
			record := domain.NewListeningRecord(id.MustGenerate("lsn"), clientID, r.ID, r.Type)
			record.StartedAt = startedAt

			// Most attempts finish; some are abandoned partway.
			listened := int64(20000 + rng.Intn(40000))
			finishedAt := startedAt.Add(time.Duration(listened) * time.Millisecond)
			record.FinishedAt = &finishedAt
			record.ListenTimeMs = listened
			record.Completed = rng.Float32() < 0.75
			record.LastWordIdx = rng.Intn(20)

			if err := history.CreateListeningRecord(ctx, record); err != nil {
				log.Printf("  Failed to create listening record: %v", err)
				continue
			}
			created++
		}
	}

	fmt.Printf("Created %d listening records for %d clients\n", created, len(demoClients))
}

// runDemo replays today's gospel through a synthetic player, printing each
// word as the sync engine lights it up.
func runDemo(ctx context.Context, s *store.Store, logger *slog.Logger, date string) {
	fmt.Println("\n=== Replaying today's gospel ===")

	gospel, err := s.GetReadingByDate(ctx, date, domain.ReadingGospel)
	if err != nil {
		log.Fatalf("Failed to load today's gospel: %v", err)
	}

	provider := timingdata.NewStoreProvider(s, logger)
	source := playback.NewTickerSource(gospel.DurationMs, 50*time.Millisecond)
	controller := highlight.NewController(source, provider, logger)

	done := make(chan struct{})
	controller.Subscribe(highlight.Listener{
		OnWordChange: func(word *timing.WordBoundary, index int) {
			if word != nil {
				fmt.Printf("  [%4d ms] %s\n", word.StartMs, word.Word)
			}
		},
		OnComplete: func() {
			close(done)
		},
		OnError: func(err error) {
			log.Printf("Highlight error: %v", err)
			close(done)
		},
	})

	if err := controller.Start(ctx, highlight.Config{
		ReadingID:   gospel.ID,
		ReadingType: domain.ReadingGospel,
	}); err != nil {
		log.Fatalf("Failed to start highlight session: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go source.Run(runCtx)

	if err := source.Play(); err != nil {
		log.Fatalf("Failed to start playback: %v", err)
	}

	fmt.Printf("%s (%s)\n", gospel.Reference, gospel.Title)
	<-done
	controller.Stop()
	fmt.Println("Replay finished")
}
