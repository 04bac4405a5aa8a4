package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/config"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/liveview"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"github.com/ikkim/wishlist-backend/pkg/wishlistclient"
)

// Watches a wishlist live: prints it, then reprints on every change.
//
//	go run ./cmd/watch -slug wishlist-3f9c2a7b1d04 -guest Alice -reserve <item-id>
func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	slug := flag.String("slug", "", "wishlist slug (required)")
	token := flag.String("token", "", "access token; omit to act as a guest")
	guest := flag.String("guest", "", "guest name for -reserve and -contribute")
	reserve := flag.String("reserve", "", "item id to reserve before watching")
	contribute := flag.String("contribute", "", "item id to contribute to before watching")
	amount := flag.String("amount", "", "contribution amount for -contribute")
	policy := config.LoadLiveView()
	baseDelay := flag.Duration("base-delay", policy.BaseDelay, "first reconnect delay (LIVEVIEW_BASE_DELAY)")
	maxAttempts := flag.Int("max-attempts", policy.MaxAttempts, "reconnect attempts before giving up (LIVEVIEW_MAX_ATTEMPTS)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Initialize(logger.Config{Level: level, Format: "console", Output: os.Stderr, EnableColor: true})

	if *slug == "" {
		fmt.Fprintln(os.Stderr, "watch: -slug is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []wishlistclient.Option{}
	if *token != "" {
		opts = append(opts, wishlistclient.WithToken(*token))
	}
	client := wishlistclient.New(*base, opts...)

	refresh := func(reason string) {
		view, err := client.GetWishlist(ctx, *slug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "refetch failed: %v\n", err)
			return
		}
		fmt.Printf("\n[%s] %s\n", time.Now().Format("15:04:05"), reason)
		render(os.Stdout, view)
	}

	refresh("initial state")

	if err := mutate(ctx, client, *reserve, *contribute, *guest, *amount); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	if *reserve != "" || *contribute != "" {
		refresh("after your request")
	}

	url, err := liveview.ChannelURL(*base, *slug)
	if err != nil {
		logger.Fatal("Invalid base URL", err)
	}

	session, err := liveview.New(liveview.Config{
		URL:         url,
		BaseDelay:   *baseDelay,
		MaxAttempts: *maxAttempts,
		OnChange: func(model.ChangeEvent) {
			refresh("wishlist changed")
		},
		OnStateChange: func(state liveview.State) {
			fmt.Fprintf(os.Stderr, "live: %s\n", state)
		},
	})
	if err != nil {
		logger.Fatal("Failed to create live view session", err)
	}
	session.Start(ctx)

	select {
	case <-ctx.Done():
		session.Close()
	case <-session.Done():
		fmt.Fprintln(os.Stderr, "live: gave up reconnecting")
		os.Exit(1)
	}
}

// mutate performs the requested reserve or contribute. A lost race prints
// what the server says the item looks like now.
func mutate(ctx context.Context, client *wishlistclient.Client, reserve, contribute, guest, amount string) error {
	switch {
	case reserve != "":
		itemID, err := uuid.Parse(reserve)
		if err != nil {
			return fmt.Errorf("invalid -reserve item id: %w", err)
		}
		_, err = client.Reserve(ctx, itemID, guest)
		return describe("reserve", err)

	case contribute != "":
		itemID, err := uuid.Parse(contribute)
		if err != nil {
			return fmt.Errorf("invalid -contribute item id: %w", err)
		}
		money, err := model.ParseMoney(amount)
		if err != nil {
			return fmt.Errorf("invalid -amount: %w", err)
		}
		_, err = client.Contribute(ctx, itemID, guest, money)
		return describe("contribute", err)
	}
	return nil
}

func describe(action string, err error) error {
	if err == nil {
		fmt.Printf("%s: ok\n", action)
		return nil
	}

	var apiErr *wishlistclient.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	if apiErr.Item != nil {
		fmt.Printf("%s rejected (%s): %s\n", action, apiErr.Code, apiErr.Message)
		fmt.Printf("  now: %s\n", itemLine(*apiErr.Item))
		return nil
	}
	return fmt.Errorf("%s rejected (%s): %s", action, apiErr.Code, apiErr.Message)
}
