package main

import (
	"chessrush/internal/app"
	"chessrush/internal/config"
	"chessrush/internal/logging"
	"chessrush/internal/model"
	"chessrush/internal/repository"
	"chessrush/internal/service"
	"context"
	"time"
)

// deck is the curated set of opening positions, in study order
var deck = []model.CuratedPosition{
	{Key: "start", Name: "Starting position", FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
	{Key: "kings-pawn", Name: "King's Pawn Game", ECO: "B00", FEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"},
	{Key: "queens-pawn", Name: "Queen's Pawn Game", ECO: "A40", FEN: "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq - 0 1"},
	{Key: "open-game", Name: "Open Game", ECO: "C20", FEN: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
	{Key: "sicilian", Name: "Sicilian Defence", ECO: "B20", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
	{Key: "french", Name: "French Defence", ECO: "C00", FEN: "rnbqkbnr/pppp1ppp/4p3/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
	{Key: "caro-kann", Name: "Caro-Kann Defence", ECO: "B10", FEN: "rnbqkbnr/pp1ppppp/2p5/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
	{Key: "ruy-lopez", Name: "Ruy Lopez", ECO: "C60", FEN: "r1bqkbnr/pppp1ppp/2n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3"},
	{Key: "italian", Name: "Italian Game", ECO: "C50", FEN: "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3"},
	{Key: "queens-gambit", Name: "Queen's Gambit", ECO: "D06", FEN: "rnbqkbnr/ppp1pppp/8/3p4/2PP4/8/PP2PPPP/RNBQKBNR b KQkq - 0 2"},
	{Key: "kings-indian", Name: "King's Indian Defence", ECO: "E60", FEN: "rnbqkb1r/pppppp1p/5np1/8/2PP4/8/PP2PPPP/RNBQKBNR w KQkq - 0 3"},
	{Key: "english", Name: "English Opening", ECO: "A10", FEN: "rnbqkbnr/pppppppp/8/8/2P5/8/PP1PPPPP/RNBQKBNR b KQkq - 0 1"},
}

func main() {
	cfg := config.Load()
	log := logging.Component(logging.New(cfg.LogLevel, cfg.LogPretty), "seed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer client.Disconnect(ctx)

	positions := repository.NewPositionRepo(client.Database(cfg.MongoDB))
	seeded := 0
	for i := range deck {
		p := deck[i]
		if _, err := service.ParseFEN(p.FEN); err != nil {
			log.Error().Err(err).Str("key", p.Key).Msg("skipping position")
			continue
		}
		p.Order = i + 1
		if err := positions.Upsert(ctx, &p); err != nil {
			log.Fatal().Err(err).Str("key", p.Key).Msg("failed to seed position")
		}
		seeded++
	}

	log.Info().Int("positions", seeded).Str("db", cfg.MongoDB).Msg("seed complete")
}
