package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/wishlist-backend/config"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	"github.com/ikkim/wishlist-backend/internal/db"
	"github.com/ikkim/wishlist-backend/internal/importer"
	"github.com/ikkim/wishlist-backend/pkg/util"
	"gorm.io/gorm"
)

// Seeds a demo owner and wishlist, optionally importing items from an XLSX
// sheet, and prints the slug plus an owner token for trying the API.
//
//	go run ./cmd/seed -items gifts.xlsx
func main() {
	ownerEmail := flag.String("owner-email", "owner@example.com", "owner account email")
	ownerName := flag.String("owner-name", "Demo Owner", "owner display name")
	title := flag.String("title", "Birthday", "wishlist title")
	itemsPath := flag.String("items", "", "XLSX file with title, price, url, image_url, group_gift columns")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed owner token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	wishlistService := service.NewWishlistService(
		repository.NewWishlistRepository(db.GetDB()),
		repository.NewItemRepository(db.GetDB()),
		repository.NewLedgerRepository(db.GetDB()),
		userRepo,
		nil,
	)

	owner, err := userRepo.FindByEmail(*ownerEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		owner = &model.User{Email: *ownerEmail, Name: *ownerName}
		err = userRepo.Create(owner)
	}
	if err != nil {
		log.Fatal("Failed to load owner:", err)
	}

	var items []service.ItemInput
	if *itemsPath != "" {
		file, err := os.Open(*itemsPath)
		if err != nil {
			log.Fatal("Failed to open items file:", err)
		}
		var summary *importer.Summary
		items, summary, err = importer.ReadItems(file)
		file.Close()
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}

		fmt.Printf("Summary:\n")
		fmt.Printf("  Data rows: %d\n", summary.Rows)
		fmt.Printf("  Valid items: %d\n", summary.Valid)
		for _, skipped := range summary.Skipped {
			fmt.Printf("  Skipped row %d: %s\n", skipped.Row, skipped.Reason)
		}
	} else {
		items = demoItems()
	}

	wishlist, err := wishlistService.CreateWishlist(owner.ID, service.WishlistInput{Title: *title})
	if err != nil {
		log.Fatal("Failed to create wishlist:", err)
	}

	for _, input := range items {
		if _, err := wishlistService.AddItem(wishlist.Slug, owner.ID, input); err != nil {
			log.Fatalf("Failed to add item %q: %v", input.Title, err)
		}
	}

	token, err := util.IssueAccessToken(owner.ID, owner.Email, cfg.JWT.Secret, *tokenTTL)
	if err != nil {
		log.Fatal("Failed to sign owner token:", err)
	}

	fmt.Println("Seed completed successfully!")
	fmt.Printf("  Wishlist slug: %s\n", wishlist.Slug)
	fmt.Printf("  Items: %d\n", len(items))
	fmt.Printf("  Owner token: %s\n", token)
}

func demoItems() []service.ItemInput {
	return []service.ItemInput{
		{Title: "Board game", Price: model.MustParseMoney("45.00")},
		{Title: "Headphones", Price: model.MustParseMoney("199.99")},
		{Title: "Weekend trip", Price: model.MustParseMoney("1000.00"), IsGroupGift: true},
	}
}
