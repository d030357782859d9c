package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/config"
)

func main() {
	subject := flag.String("subject", "registrar", "token subject")
	role := flag.String("role", string(models.RoleAdmin), "token role (ADMIN or VIEWER)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	userRole := models.UserRole(*role)
	if !userRole.Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(*subject, userRole)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format(time.RFC3339))
}
