package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"

	"github.com/carebridge/visits-service/internal/app"
	"github.com/carebridge/visits-service/internal/config"
	"github.com/carebridge/visits-service/internal/controllers"
	"github.com/carebridge/visits-service/internal/middleware"
	"github.com/carebridge/visits-service/internal/repositories"
	"github.com/carebridge/visits-service/internal/routes"
	"github.com/carebridge/visits-service/internal/services"
	"github.com/carebridge/visits-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize visits-service:", err)
	}
	defer application.Close()

	shiftRepo := repositories.NewShiftRepository(application.DB)
	clientRepo := repositories.NewClientRepository(application.DB)
	caregiverRepo := repositories.NewCaregiverRepository(application.DB)
	coordRepo := repositories.NewCoordinatorRepository(application.DB)

	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)

	visitService := services.NewVisitService(
		cfg,
		shiftRepo,
		clientRepo,
		caregiverRepo,
		coordRepo,
		twClient,
		sgClient,
	)
	missedVisitService := services.NewMissedVisitService(
		cfg,
		shiftRepo,
		clientRepo,
		coordRepo,
		visitService,
	)

	visitsController := controllers.NewVisitsController(visitService)
	shiftsController := controllers.NewShiftsController(visitService)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.VisitsClockIn, visitsController.ClockInHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.VisitsClockOut, visitsController.ClockOutHandler).Methods(http.MethodPost)

	secured.HandleFunc(routes.ShiftsBase, shiftsController.CreateShiftHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ShiftsMy, shiftsController.ListMyShiftsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ShiftsConflicts, shiftsController.ListConflictsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ShiftsCancel, shiftsController.CancelShiftHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ShiftsMissed, shiftsController.MarkMissedHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ShiftsByID, shiftsController.GetShiftHandler).Methods(http.MethodGet)

	c := cron.New()
	_, sweepErr := c.AddFunc("@every 2m", func() {
		if e := missedVisitService.RunMissedVisitCheck(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Missed-visit sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule missed-visit cron")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("visits-service failed to start:", err)
	}
}
