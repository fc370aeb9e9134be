package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/search"
	"forensiai/backend/internal/session"
	"forensiai/backend/internal/storage"

	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  list                               list stored cases, newest extraction first
  delete <case_id>                   delete a case and all of its evidence
  add-officer <badge> <name> <access_token> [role]
                                     register an officer who signs in with access_token`

func main() {
	cfg := config.Load()
	if cfg.Offline() {
		log.Fatal("DATABASE_URL must be set for admin commands")
	}
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // writes from here need no live fan-out

	var opts []casesync.Option
	if cfg.MeiliURL != "" {
		index := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer index.Close()
		opts = append(opts, casesync.WithIndexer(index))
	}
	manager := casesync.NewManager(storageSvc, opts...)

	switch os.Args[1] {
	case "list":
		if err := listCases(ctx, manager); err != nil {
			log.Fatalf("Error listing cases: %v", err)
		}
	case "delete":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin delete <case_id>")
			os.Exit(1)
		}
		caseID := os.Args[2]
		if err := manager.Delete(ctx, caseID); err != nil {
			log.Fatalf("Error deleting case: %v", err)
		}
		fmt.Printf("Case %s has been deleted.\n", caseID)
	case "add-officer":
		if len(os.Args) < 5 {
			fmt.Println("Usage: admin add-officer <badge> <name> <access_token> [role]")
			os.Exit(1)
		}
		role := "investigator"
		if len(os.Args) > 5 {
			role = os.Args[5]
		}
		officer, err := addOfficer(db, os.Args[2], os.Args[3], os.Args[4], role)
		if err != nil {
			log.Fatalf("Error adding officer: %v", err)
		}
		fmt.Printf("Officer %s registered with id %s.\n", officer.Name, officer.ID)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listCases(ctx context.Context, m *casesync.Manager) error {
	cases, err := m.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEVICE\tEXTRACTED")
	for _, c := range cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Device, c.ExtractionDate)
	}
	return w.Flush()
}

func addOfficer(db *gorm.DB, badge, name, token, role string) (models.OfficerRow, error) {
	hash, err := session.HashToken(token)
	if err != nil {
		return models.OfficerRow{}, fmt.Errorf("hash access token: %w", err)
	}
	officer := models.OfficerRow{BadgeID: badge, Name: name, Role: role, TokenHash: hash}
	if err := db.Create(&officer).Error; err != nil {
		return officer, err
	}
	return officer, nil
}
