package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/config"
	"github.com/gigroom/greenroom/internal/member"
	"github.com/gigroom/greenroom/internal/setlist"
	"github.com/gigroom/greenroom/internal/show"
	"github.com/gigroom/greenroom/internal/song"
	"github.com/gigroom/greenroom/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo account with a band, songs, a setlist, and a show",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoMembers = []member.CreateMemberInput{
	{Name: "Priya Nair", Email: "priya@example.com", Role: "Vocals"},
	{Name: "Tom Okafor", Email: "tom@example.com", Role: "Drums"},
	{Name: "Lena Fischer", Role: "Bass"},
}

var demoSongs = []song.CreateSongInput{
	{Title: "Midnight Circuit", Scale: "A Minor", Genre: "Rock"},
	{Title: "Paper Lanterns", Scale: "D Major", Genre: "Indie"},
	{Title: "Undertow", Scale: "E Minor", Genre: "Alt Rock"},
	{Title: "Glasshouse", Scale: "G Major", Genre: "Pop Rock"},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := user.NewStore(pool)
	bands := band.NewStore(pool)
	members := member.NewStore(pool)
	songs := song.NewStore(pool)
	setlists := setlist.NewStore(pool)
	shows := show.NewStore(pool)

	u, err := users.Create(ctx, user.CreateUserInput{
		Email:    "demo@greenroom.dev",
		Name:     "Demo User",
		Password: "demo-password",
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			slog.Info("demo user already exists, skipping seed")
			return nil
		}
		return err
	}

	b, err := bands.CreateWithAdmin(ctx, band.CreateBandInput{
		Name:        "The Demo Collective",
		Description: "A seeded band for trying out Greenroom.",
	}, u.ID, u.Name, u.Email)
	if err != nil {
		return err
	}

	for _, in := range demoMembers {
		if _, err := members.Create(ctx, b.ID, in); err != nil {
			return err
		}
	}

	sl, err := setlists.Create(ctx, setlist.CreateSetlistInput{
		BandID: b.ID,
		Name:   "Club Set",
	})
	if err != nil {
		return err
	}

	for _, in := range demoSongs {
		in.BandID = b.ID
		sg, err := songs.Create(ctx, in)
		if err != nil {
			return err
		}
		if err := setlists.AddSong(ctx, sl.ID, sg.ID); err != nil {
			return err
		}
	}

	sh, err := shows.Create(ctx, show.CreateShowInput{
		BandID:      b.ID,
		Venue:       "The Velvet Room",
		ShowDate:    "2026-10-17",
		ShowTime:    "21:00",
		ShowMembers: []string{"Demo User", "Priya Nair", "Tom Okafor"},
		Payment:     "1200.00",
		PieceCount:  3,
	})
	if err != nil {
		return err
	}
	if _, err := shows.CreatePayment(ctx, sh.ID, show.CreatePaymentInput{
		MemberName: "Priya Nair",
		Amount:     "400.00",
	}); err != nil {
		return err
	}

	slog.Info("seed complete", "band_id", b.ID)
	fmt.Println("Demo account: demo@greenroom.dev / demo-password")
	return nil
}
