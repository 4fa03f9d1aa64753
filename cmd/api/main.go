package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/orgnest/console-backend-go/internal/config"
	appHTTP "github.com/orgnest/console-backend-go/internal/handler/http"
	"github.com/orgnest/console-backend-go/internal/pkg/database"
	"github.com/orgnest/console-backend-go/internal/pkg/jwt"
	"github.com/orgnest/console-backend-go/internal/repository/postgresql"
	payrollService "github.com/orgnest/console-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "orgnest-console"),
	)

	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	facilityRepo := postgresql.NewFacilityRepository(db)
	ledgerRepo := postgresql.NewLedgerRepository(db)
	txManager := postgresql.NewTxManager(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	ledgerPoster := payrollService.NewLedgerPoster(ledgerRepo, logger)
	payrollSvc := payrollService.NewPayrollService(
		txManager,
		payrollRepo,
		employeeRepo,
		facilityRepo,
		ledgerPoster,
		cfg.Payroll.SigningStates,
		logger,
	)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(JWTService, payrollHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
