package main // entry point wiring the service together

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/booking"
	"github.com/caretrain/session-booking/internal/config"
	"github.com/caretrain/session-booking/internal/database"
	"github.com/caretrain/session-booking/internal/handler"
	"github.com/caretrain/session-booking/internal/queue"
	"github.com/caretrain/session-booking/internal/repository"
	"github.com/caretrain/session-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessions := repository.NewSessionRepo(db)
	attendees := repository.NewAttendeeRepo(db)
	training := repository.NewTrainingRepo(db)
	store := repository.NewReservationStore(db)

	engine := booking.NewEngine(store, training)

	// Consumer feeds the attendance log from the confirmed-seat events;
	// it reconnects on its own and never blocks the API.
	go func() {
		if err := queue.StartAttendanceConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, &cfg), cfg.JWTSecret)
	router.RegisterBooking(e, router.BookingDeps{
		Sessions:   handler.NewSessionHandler(sessions),
		Attendance: handler.NewAttendanceHandler(engine, store),
		Manage:     handler.NewManageHandler(engine, sessions, attendees),
		JWTSecret:  cfg.JWTSecret,
		Redis:      rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
