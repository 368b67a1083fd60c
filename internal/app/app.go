// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД, Discord-клиент, репозитории, сервисы,
// обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/disgoorg/disgo"
	disbot "github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/gateway"

	"royalacademy.app/discord-bot/internal/access"
	"royalacademy.app/discord-bot/internal/bot"
	"royalacademy.app/discord-bot/internal/config"
	"royalacademy.app/discord-bot/internal/db/sqlite"
	"royalacademy.app/discord-bot/internal/features/activities"
	"royalacademy.app/discord-bot/internal/features/cleanup"
	"royalacademy.app/discord-bot/internal/features/economy"
	"royalacademy.app/discord-bot/internal/features/inventory"
	"royalacademy.app/discord-bot/internal/features/profile"
	"royalacademy.app/discord-bot/internal/features/quota"
	"royalacademy.app/discord-bot/internal/features/roles"
	"royalacademy.app/discord-bot/internal/features/rpreward"
	"royalacademy.app/discord-bot/internal/features/shop"
	"royalacademy.app/discord-bot/internal/jobs"
	"royalacademy.app/discord-bot/internal/notify"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *sql.DB
	Client    disbot.Client
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Discord-клиент ===
	client, err := disgo.New(cfg.DiscordBotToken,
		disbot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Discord-клиента: %w", err)
	}
	restClient := client.Rest()
	checker := access.NewChecker(restClient, cfg.GuildID)

	// === 3. Репозитории ===
	economyRepo := economy.NewRepository(db)
	rpRepo := rpreward.NewRepository(db)
	shopRepo := shop.NewRepository(db)
	inventoryRepo := inventory.NewRepository(db)
	profileRepo := profile.NewRepository(db)
	rolesRepo := roles.NewRepository(db)

	// === 4. Сервисы ===
	// Профили первыми: нотификатор доставляет чеки в тред-кошелёк.
	profileService := profile.NewService(profileRepo, restClient, checker, cfg)
	notifier := notify.NewDiscordNotifier(restClient, profileService)

	economyService := economy.NewService(economyRepo, notifier, cfg.CurrencySymbol)
	quotaService := quota.NewService(db, cfg.QuotaLimits)
	// Карта наград в конфиге держит snowflake-ключи, сервис работает с int64
	rewards := make(map[int64]int64, len(cfg.RPRewardChannels))
	for channelID, amount := range cfg.RPRewardChannels {
		rewards[int64(channelID)] = amount
	}
	rpService := rpreward.NewService(rpRepo, economyService, rewards, cfg.RPMinLength, cfg.RPCooldown)
	shopService := shop.NewService(shopRepo, notifier, cfg.CurrencySymbol)

	sessions := activities.NewManager(cfg.LobbyTimeout, cfg.LobbyTimeout, cfg.RoundTimeout)
	activitiesService := activities.NewService(economyService, quotaService, sessions, notifier, cfg)

	// === 5. Обработчики ===
	handlers := bot.Handlers{
		Economy:    economy.NewHandler(economyService, checker, cfg),
		Quota:      quota.NewHandler(quotaService, checker, cfg),
		RPReward:   rpreward.NewHandler(rpService, checker, cfg, restClient),
		Shop:       shop.NewHandler(shopService, checker, cfg),
		Inventory:  inventory.NewHandler(inventoryRepo, shopService),
		Profile:    profile.NewHandler(profileService, economyService, rpService, checker, cfg),
		Roles:      roles.NewHandler(rolesRepo, restClient, checker, cfg),
		Activities: activities.NewHandler(activitiesService, restClient, cfg),
		Cleanup: cleanup.NewHandler(map[string]cleanup.Purger{
			"economy":      economyService,
			"quotas":       quotaService,
			"rp_rewards":   rpService,
			"shop":         shopService,
			"inventory":    inventoryRepo,
			"applications": rolesRepo,
		}, profileService),
	}

	// === 6. Собираем бота ===
	b := bot.New(cfg, client, handlers)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(activitiesService)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        db,
		Client:    client,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := sqlite.InitMigrations(ctx, db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Economy},
		{2, migration002ActivityLogs},
		{3, migration003RPRewards},
		{4, migration004Shop},
		{5, migration005Applications},
		{6, migration006Profiles},
	}

	for _, m := range migrations {
		if err := sqlite.ExecMigrationSQL(ctx, db, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
	}
	return nil
}

// SQL-миграции встроены в код для упрощения деплоя:
// бинарник поднимает схему сам, файлы рядом не нужны.

var migration001Economy = `
CREATE TABLE IF NOT EXISTS royals (
    user_id INTEGER PRIMARY KEY,
    balance INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_user_id INTEGER NOT NULL,
    to_user_id INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    transaction_type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration002ActivityLogs = `
CREATE TABLE IF NOT EXISTS activity_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    activity TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_logs_user ON activity_logs(user_id, activity, created_at);
`

var migration003RPRewards = `
CREATE TABLE IF NOT EXISTS rp_rewards (
    message_id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    channel_id INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_rp_rewards_user ON rp_rewards(user_id, created_at);
`

var migration004Shop = `
CREATE TABLE IF NOT EXISTS shop_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    shop_name TEXT NOT NULL DEFAULT 'Royal Academy Shop',
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    price INTEGER NOT NULL,
    stock INTEGER NOT NULL DEFAULT -1,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_shop_items_shop ON shop_items(shop_name);
CREATE TABLE IF NOT EXISTS inventory (
    user_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, item_id)
);
CREATE TABLE IF NOT EXISTS active_displays (
    user_id INTEGER PRIMARY KEY,
    item_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sales_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL,
    item_name TEXT NOT NULL,
    buyer_id INTEGER NOT NULL,
    price INTEGER NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sales_history_buyer ON sales_history(buyer_id);
`

var migration005Applications = `
CREATE TABLE IF NOT EXISTS applications (
    user_id INTEGER PRIMARY KEY,
    application_text TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

var migration006Profiles = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    grade TEXT NOT NULL,
    faceclaim TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    id_card_url TEXT NOT NULL DEFAULT '',
    affiliation TEXT NOT NULL,
    bio_thread_id INTEGER NOT NULL DEFAULT 0,
    wallet_thread_id INTEGER NOT NULL DEFAULT 0,
    inventory_thread_id INTEGER NOT NULL DEFAULT 0,
    trading_thread_id INTEGER NOT NULL DEFAULT 0,
    desk_thread_id INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
