package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelAppointmentHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/cancel_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/create_appointment"
	createBlockedPeriodHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/create_blocked_period"
	deleteBlockedPeriodHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/delete_blocked_period"
	getAppointmentHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_available_slots"
	getCalendarConnectionsHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_calendar_connections"
	getDepositPolicyHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_deposit_policy"
	getUserAppointmentsHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_user_appointments"
	getWeeklyScheduleHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/get_weekly_schedule"
	listAppointmentsHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/list_appointments"
	listBlockedPeriodsHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/list_blocked_periods"
	paymentWebhookHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/payment_webhook"
	rescheduleAppointmentHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/reschedule_appointment"
	runSweepHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/run_sweep"
	updateDepositPolicyHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/update_deposit_policy"
	updateWeeklyScheduleHandler "github.com/m04kA/SMC-SalonScheduler/internal/api/handlers/update_weekly_schedule"
	"github.com/m04kA/SMC-SalonScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-SalonScheduler/internal/config"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/cache/slots"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/locker"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/catalog"
	contactRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/contact"
	depositRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/deposit"
	scheduleRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/schedule"
	settingsRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/settings"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/email"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/events"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/googlecalendar"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/line"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/telegram"
	appointmentsService "github.com/m04kA/SMC-SalonScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/calendarsync"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/notifications"
	scheduleService "github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/sideeffects"
	cancelAppointmentUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/cancel_appointment"
	completeAppointmentsUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/complete_appointments"
	confirmDepositUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/confirm_deposit"
	createAppointmentUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/create_appointment"
	expireHoldsUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/expire_holds"
	getAvailableSlotsUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/get_available_slots"
	rescheduleAppointmentUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/reschedule_appointment"
	resyncCalendarUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/resync_calendar"
	runSweepsUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/run_sweeps"
	sendRemindersUC "github.com/m04kA/SMC-SalonScheduler/internal/usecase/send_reminders"
	"github.com/m04kA/SMC-SalonScheduler/internal/worker"
	"github.com/m04kA/SMC-SalonScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/metrics"
	"github.com/m04kA/SMC-SalonScheduler/pkg/tracing"
	"github.com/m04kA/SMC-SalonScheduler/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "путь к файлу конфигурации")
	sweepName := flag.String("sweep", "", "запустить проход (expire-holds, complete-appointments, send-reminders, resync-calendar, all) и выйти")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SalonScheduler...")
	log.Info("Configuration loaded from %s (timezone=%s)", *configPath, cfg.Salon.Timezone)

	// Трассировка
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to set up tracing: %v", err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без метрик обертка работает с nil коллектором
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)
	contactRepository := contactRepo.NewRepository(wrappedDB)
	depositRepository := depositRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)
	stylistRepository := stylistRepo.NewRepository(wrappedDB)

	// Redis: общий кэш слотов и блокировки проходов между репликами
	var (
		slotCache   availability.SlotCache = slots.Nop{}
		sweepLocker runSweepsUC.Locker    = locker.NewLocalLocker()
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		sweepLocker = locker.NewRedisLocker(redisClient)
		if cfg.Cache.Enabled {
			slotCache = slots.NewRedisCache(redisClient, cfg.Cache.SlotsTTL.Duration, log)
		}
		log.Info("Connected to redis at %s", cfg.Redis.Addr)
	} else if cfg.Cache.Enabled {
		slotCache = slots.NewMemoryCache(cfg.Cache.SlotsTTL.Duration)
		log.Info("Redis is not configured, using in-process slot cache and sweep locks")
	}

	// Исполнитель побочных эффектов: очередь для сервера, синхронно для разового прохода
	var (
		executor worker.Executor
		queue    *worker.Queue
	)
	if *sweepName != "" {
		executor = worker.Inline{Timeout: cfg.Worker.TaskTimeout.Duration, Log: log}
	} else {
		queue = worker.NewQueue(cfg.Worker.Workers, cfg.Worker.QueueSize, cfg.Worker.TaskTimeout.Duration, log)
		queue.Start()
		executor = queue
	}

	// Инициализируем интеграционных клиентов
	paymentsClient := payments.NewClient(payments.Config{
		SecretKey:        cfg.Payments.SecretKey,
		WebhookSecret:    cfg.Payments.WebhookSecret,
		WebhookTolerance: cfg.Payments.WebhookTolerance.Duration,
		SuccessURL:       cfg.Payments.SuccessURL,
		CancelURL:        cfg.Payments.CancelURL,
		Timeout:          cfg.Payments.Timeout.Duration,
	}, log)

	var calendar sideeffects.CalendarSyncer = calendarsync.Disabled{}
	if cfg.Calendar.Enabled {
		calendarClient := googlecalendar.NewClient(googlecalendar.Config{
			ClientID:     cfg.Calendar.ClientID,
			ClientSecret: cfg.Calendar.ClientSecret,
			Timeout:      cfg.Calendar.Timeout.Duration,
		})
		calendar = calendarsync.NewReconciler(
			calendarClient,
			appointmentRepository,
			stylistRepository,
			metricsCollector,
			cfg.Salon.Location(),
			log,
		)
		log.Info("Google Calendar sync enabled")
	}

	// Каналы уведомлений в порядке предпочтения
	var channels []notifications.Channel
	if cfg.Telegram.BotToken != "" {
		channels = append(channels, notifications.NewTelegramChannel(
			telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Notifications.Timeout.Duration),
		))
	}
	if cfg.Line.ChannelToken != "" {
		channels = append(channels, notifications.NewLineChannel(
			line.NewClient(cfg.Line.APIURL, cfg.Line.ChannelToken, cfg.Notifications.Timeout.Duration),
		))
	}
	if cfg.Email.Host != "" {
		channels = append(channels, notifications.NewEmailChannel(email.NewClient(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})))
	}
	log.Info("Notification channels configured: %d", len(channels))

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("Lifecycle events are published to kafka topic %s", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	// Инициализируем сервисы
	availabilityCalc := availability.NewCalculator(
		scheduleRepository,
		appointmentRepository,
		stylistRepository,
		slotCache,
		metricsCollector,
		availability.Config{
			StepMinutes:      cfg.Salon.SlotStepMinutes,
			MinNoticeMinutes: cfg.Booking.MinNoticeMinutes,
			Location:         cfg.Salon.Location(),
		},
		log,
	)
	depositManager := deposits.NewManager(
		settingsRepository,
		appointmentRepository,
		depositRepository,
		paymentsClient,
		deposits.Config{Currency: cfg.Salon.Currency},
		log,
	)
	dispatcher := notifications.NewDispatcher(
		channels,
		notifications.PlainRenderer{Location: cfg.Salon.Location()},
		contactRepository,
		metricsCollector,
		notifications.Config{Timeout: cfg.Notifications.Timeout.Duration},
		log,
	)
	sideEffects := sideeffects.NewScheduler(
		executor,
		appointmentRepository,
		stylistRepository,
		calendar,
		dispatcher,
		publisher,
		log,
	)
	appointmentSvc := appointmentsService.NewService(appointmentRepository, depositRepository, log)
	scheduleSvc := scheduleService.NewService(scheduleRepository, stylistRepository, settingsRepository, availabilityCalc, log)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(availabilityCalc, catalogRepository, log)

	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		catalogRepository,
		stylistRepository,
		availabilityCalc,
		depositManager,
		sideEffects,
		txMgr,
		metricsCollector,
		createAppointmentUC.Config{HoldTimeout: cfg.Booking.HoldTimeout.Duration},
		log,
	)

	confirmDepositUseCase := confirmDepositUC.NewUseCase(
		appointmentRepository,
		depositManager,
		sideEffects,
		txMgr,
		metricsCollector,
		log,
	)

	rescheduleAppointmentUseCase := rescheduleAppointmentUC.NewUseCase(
		appointmentRepository,
		stylistRepository,
		availabilityCalc,
		sideEffects,
		txMgr,
		log,
	)

	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(
		appointmentRepository,
		depositManager,
		availabilityCalc,
		sideEffects,
		txMgr,
		metricsCollector,
		log,
	)

	// Фоновые проходы
	expireHoldsUseCase := expireHoldsUC.NewUseCase(
		appointmentRepository,
		depositManager,
		availabilityCalc,
		sideEffects,
		txMgr,
		metricsCollector,
		expireHoldsUC.Config{BatchSize: cfg.Reminders.BatchSize},
		log,
	)
	completeAppointmentsUseCase := completeAppointmentsUC.NewUseCase(
		appointmentRepository,
		sideEffects,
		metricsCollector,
		completeAppointmentsUC.Config{
			Grace:     cfg.Booking.CompleteGrace.Duration,
			Location:  cfg.Salon.Location(),
			BatchSize: cfg.Reminders.BatchSize,
		},
		log,
	)
	sendRemindersUseCase := sendRemindersUC.NewUseCase(
		appointmentRepository,
		sideEffects,
		sendRemindersUC.Config{
			Lookahead:    cfg.Reminders.Lookahead.Duration,
			ClaimTTL:     cfg.Reminders.ClaimTTL.Duration,
			SendInterval: cfg.Reminders.SendInterval.Duration,
			BatchSize:    cfg.Reminders.BatchSize,
			Location:     cfg.Salon.Location(),
		},
		log,
	)
	resyncCalendarUseCase := resyncCalendarUC.NewUseCase(
		appointmentRepository,
		stylistRepository,
		calendar,
		resyncCalendarUC.Config{
			BatchSize: cfg.Reminders.BatchSize,
			Location:  cfg.Salon.Location(),
		},
		log,
	)
	runSweepsUseCase := runSweepsUC.NewUseCase(
		map[domain.SweepName]runSweepsUC.Sweep{
			domain.SweepExpireHolds:          expireHoldsUseCase,
			domain.SweepCompleteAppointments: completeAppointmentsUseCase,
			domain.SweepSendReminders:        sendRemindersUseCase,
			domain.SweepResyncCalendar:       resyncCalendarUseCase,
		},
		sweepLocker,
		metricsCollector,
		runSweepsUC.Config{LockTTL: cfg.Sweeps.LockTTL.Duration},
		log,
	)

	// Разовый запуск прохода (cron / Kubernetes CronJob)
	if *sweepName != "" {
		code := runSweepOnce(runSweepsUseCase, domain.SweepName(*sweepName), log)
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("Failed to flush traces: %v", err)
		}
		publisher.Close()
		log.Close()
		os.Exit(code)
	}

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentSvc, log)
	getUserAppointments := getUserAppointmentsHandler.NewHandler(appointmentSvc, log)
	rescheduleAppointment := rescheduleAppointmentHandler.NewHandler(rescheduleAppointmentUseCase, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(cancelAppointmentUseCase, log)
	paymentWebhook := paymentWebhookHandler.NewHandler(confirmDepositUseCase, log)
	runSweep := runSweepHandler.NewHandler(runSweepsUseCase, log)
	getWeeklySchedule := getWeeklyScheduleHandler.NewHandler(scheduleSvc, log)
	updateWeeklySchedule := updateWeeklyScheduleHandler.NewHandler(scheduleSvc, log)
	listBlockedPeriods := listBlockedPeriodsHandler.NewHandler(scheduleSvc, log)
	createBlockedPeriod := createBlockedPeriodHandler.NewHandler(scheduleSvc, log)
	deleteBlockedPeriod := deleteBlockedPeriodHandler.NewHandler(scheduleSvc, log)
	getDepositPolicy := getDepositPolicyHandler.NewHandler(scheduleSvc, log)
	updateDepositPolicy := updateDepositPolicyHandler.NewHandler(scheduleSvc, log)
	getCalendarConnections := getCalendarConnectionsHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты на дату
	api.HandleFunc("/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Webhook платежного провайдера (проверка подписи внутри)
	api.HandleFunc("/webhooks/payments", paymentWebhook.Handle).Methods(http.MethodPost)

	// Создание записи: гость или авторизованный клиент
	api.Handle("/appointments", middleware.OptionalAuth(http.HandlerFunc(createAppointment.Handle))).
		Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID / X-User-Role)
	// ============================================================

	// Auth на уровне handler: пути пересекаются с публичным POST /appointments
	protected := func(h http.HandlerFunc) http.Handler { return middleware.Auth(h) }

	// --- Записи ---
	api.Handle("/appointments", protected(listAppointments.Handle)).Methods(http.MethodGet)
	api.Handle("/appointments/{appointmentId}", protected(getAppointment.Handle)).Methods(http.MethodGet)
	api.Handle("/appointments/{appointmentId}/reschedule", protected(rescheduleAppointment.Handle)).Methods(http.MethodPatch)
	api.Handle("/appointments/{appointmentId}/cancel", protected(cancelAppointment.Handle)).Methods(http.MethodPatch)

	// История записей клиента
	api.Handle("/users/{userId}/appointments", protected(getUserAppointments.Handle)).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES (роль admin)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth, middleware.RequireAdmin)

	admin.HandleFunc("/schedule", getWeeklySchedule.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/schedule", updateWeeklySchedule.Handle).Methods(http.MethodPut)
	admin.HandleFunc("/blocked-periods", listBlockedPeriods.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/blocked-periods", createBlockedPeriod.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/blocked-periods/{blockedPeriodId}", deleteBlockedPeriod.Handle).Methods(http.MethodDelete)
	admin.HandleFunc("/deposit-policy", getDepositPolicy.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/deposit-policy", updateDepositPolicy.Handle).Methods(http.MethodPut)
	admin.HandleFunc("/calendar-connections", getCalendarConnections.Handle).Methods(http.MethodGet)

	// ============================================================
	// INTERNAL ROUTES (планировщик, Bearer токен)
	// ============================================================

	internal := api.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.SweepToken(cfg.Sweeps.Token))
	internal.HandleFunc("/sweeps/{sweep}", runSweep.Handle).Methods(http.MethodPost)

	var handler http.Handler = r
	if cfg.Tracing.Enabled {
		handler = middleware.Tracing(cfg.Metrics.ServiceName)(r)
		log.Info("Tracing enabled, exporting to %s", cfg.Tracing.OTLPEndpoint)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся уже поставленных побочных эффектов
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error("Background queue did not drain: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// runSweepOnce запускает проход и возвращает код завершения процесса
func runSweepOnce(useCase *runSweepsUC.UseCase, name domain.SweepName, log *logger.Logger) int {
	reports, err := useCase.Execute(context.Background(), name)
	for _, report := range reports {
		log.Info("Sweep %s: processed=%d succeeded=%d failed=%d skipped=%d locked=%t",
			report.Sweep, report.Processed, report.Succeeded, report.Failed, report.Skipped, report.Locked)
	}
	if err != nil {
		log.Error("Sweep %s failed: %v", name, err)
		return 1
	}
	return 0
}
