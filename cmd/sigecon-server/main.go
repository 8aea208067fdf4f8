package main

import (
	"fmt"
	"os"

	"github.com/coder-gabrielsantos/sigecon-server/internal/auth"
	"github.com/coder-gabrielsantos/sigecon-server/internal/config"
	"github.com/coder-gabrielsantos/sigecon-server/internal/db"
	"github.com/coder-gabrielsantos/sigecon-server/internal/excel"
	httphandler "github.com/coder-gabrielsantos/sigecon-server/internal/http"
	"github.com/coder-gabrielsantos/sigecon-server/internal/http/middleware"
	"github.com/coder-gabrielsantos/sigecon-server/internal/logger"
	"github.com/coder-gabrielsantos/sigecon-server/internal/pdf"
	"github.com/coder-gabrielsantos/sigecon-server/internal/repository"
	"github.com/coder-gabrielsantos/sigecon-server/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	userRepo := repository.NewUserRepository(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	tokenIssuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	tokenParser := auth.NewParser(cfg.Auth.Secret)

	contractService := service.NewContractService(contractRepo, log)
	orderService := service.NewOrderService(orderRepo, contractRepo, excelGenerator, pdfGenerator, log)
	userService := service.NewUserService(userRepo, tokenIssuer, log)

	handler := httphandler.NewHandler(contractService, orderService, userService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting sigecon server")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
