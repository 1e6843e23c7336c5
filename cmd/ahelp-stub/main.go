package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ahelp-app/ahelp-cli/internal/config"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
	"github.com/ahelp-app/ahelp-cli/internal/stub"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store := stub.NewStore()
	seed(store)

	server := stub.NewServer(store, cfg.StubJWTSecret)

	slog.Info("stub backend listening", "addr", cfg.StubAddr)
	if err := http.ListenAndServe(cfg.StubAddr, server.Router()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// seed loads a handful of dev accounts: an admin, two students and a
// verified helper with a profile. Passwords match the email local part.
func seed(store *stub.Store) {
	admin, _ := store.CreateUser(domain.User{
		FirstName: "Ada", LastName: "Root", Email: "admin@ahelp.local", Role: domain.RoleAdmin,
	}, "admin")

	student, _ := store.CreateUser(domain.User{
		FirstName: "Sam", LastName: "Student", Email: "sam@ahelp.local", Role: domain.RoleCommon,
	}, "sam")
	store.CreateUser(domain.User{
		FirstName: "Nora", LastName: "Newton", Email: "nora@ahelp.local", Role: domain.RoleCommon,
	}, "nora")

	helper, _ := store.CreateUser(domain.User{
		FirstName: "Hana", LastName: "Helper", Email: "hana@ahelp.local", Role: domain.RoleHelper,
	}, "hana")
	store.VerifyEmail(helper.VerifyToken, helper.User.Email)
	profile, _ := store.CreateHelper(helper.User.ID, "MSc Mathematics")

	if admin != nil && student != nil && profile != nil {
		store.AssignUser(profile.ID, student.User.ID)
	}
}
