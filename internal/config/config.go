// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры;
// составные значения (списки ролей, карта наград по каналам, лимиты квот)
// парсятся вручную в Load().
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Discord ---
	DiscordBotToken string `envconfig:"DISCORD_BOT_TOKEN" required:"true"`
	// Гильдия, в которой регистрируются слэш-команды и работает бот
	GuildID snowflake.ID `envconfig:"GUILD_ID" required:"true"`
	// Канал приветствия новых участников
	WelcomeChannelID snowflake.ID `envconfig:"WELCOME_CHANNEL_ID" default:"0"`
	// Канал, куда падают анкеты на рассмотрение стаффа
	StaffAlertChannelID snowflake.ID `envconfig:"STAFF_ALERT_CHANNEL_ID" default:"0"`

	// --- Database ---
	// Путь к файлу встроенной базы. Один файл — вся state бота.
	DBPath string `envconfig:"DB_PATH" default:"royal_academy.db"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Economy ---
	CurrencySymbol string `envconfig:"CURRENCY_SYMBOL" default:"R"`

	// --- Roles (имена ролей с правами) ---
	// Выдача/изъятие Royals
	StaffGrantRolesRaw string `envconfig:"STAFF_GRANT_ROLES" default:"Empress of TRA,Vault Keeper"`
	// Полный доступ (wipe, просмотр чужих балансов)
	StaffSupremeRole string `envconfig:"STAFF_SUPREME_ROLE" default:"Empress of TRA"`
	// Общий стафф-доступ (квоты, статистика, профили)
	StaffAccessRolesRaw string `envconfig:"STAFF_ACCESS_ROLES" default:"Student Council,Professor,Empress of TRA,Vault Keeper"`
	// Управление магазином
	ShopAdminRolesRaw string `envconfig:"SHOP_ADMIN_ROLES" default:"Empress of TRA,Commerce Handler,Shop Keeper"`
	// Просмотр истории продаж
	SupervisorRolesRaw string `envconfig:"SUPERVISOR_ROLES" default:"Empress of TRA,Commerce Handler"`
	// Стартовая роль новичка до одобрения анкеты
	StartRoleName string `envconfig:"START_ROLE_NAME" default:"newbie"`

	StaffGrantRoles  []string `envconfig:"-"`
	StaffAccessRoles []string `envconfig:"-"`
	ShopAdminRoles   []string `envconfig:"-"`
	SupervisorRoles  []string `envconfig:"-"`

	// --- RP rewards ---
	// Карта "канал:награда", например "1441113703062835291:1,1441113703062835292:2".
	// Сообщения в тредах засчитываются по родительскому каналу.
	RPRewardChannelsRaw string                 `envconfig:"RP_REWARD_CHANNELS" default:""`
	RPRewardChannels    map[snowflake.ID]int64 `envconfig:"-"`
	// Минимальная длина поста для награды
	RPMinLength int `envconfig:"RP_MIN_LENGTH" default:"250"`
	// Антиспам-кулдаун между наградами одного автора
	RPCooldown time.Duration `envconfig:"RP_COOLDOWN" default:"60s"`

	// --- Quotas ---
	// Недельные лимиты по активностям. Таблица, не константа:
	// новые активности добавляются без изменения кода квот.
	QuotaLimitsRaw string         `envconfig:"QUOTA_LIMITS" default:"wish:2,brew_potion:2,host_teaparty:2"`
	QuotaLimits    map[string]int `envconfig:"-"`

	// --- Activities ---
	WishCost       int64         `envconfig:"WISH_COST" default:"10"`
	TeaHostReward  int64         `envconfig:"TEA_HOST_REWARD" default:"50"`
	TeaGuestReward int64         `envconfig:"TEA_GUEST_REWARD" default:"20"`
	LobbyTimeout   time.Duration `envconfig:"LOBBY_TIMEOUT" default:"5m"`
	RoundTimeout   time.Duration `envconfig:"ROUND_TIMEOUT" default:"20m"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	cfg.StaffGrantRoles = parseCSV(cfg.StaffGrantRolesRaw)
	cfg.StaffAccessRoles = parseCSV(cfg.StaffAccessRolesRaw)
	cfg.ShopAdminRoles = parseCSV(cfg.ShopAdminRolesRaw)
	cfg.SupervisorRoles = parseCSV(cfg.SupervisorRolesRaw)

	rewards, err := parseChannelRewards(cfg.RPRewardChannelsRaw)
	if err != nil {
		return nil, fmt.Errorf("RP_REWARD_CHANNELS: %w", err)
	}
	cfg.RPRewardChannels = rewards

	limits, err := parseQuotaLimits(cfg.QuotaLimitsRaw)
	if err != nil {
		return nil, fmt.Errorf("QUOTA_LIMITS: %w", err)
	}
	cfg.QuotaLimits = limits

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет корректность загруженной конфигурации.
func (c *Config) Validate() error {
	if c.GuildID == 0 {
		return fmt.Errorf("GUILD_ID не задан или равен 0")
	}
	if c.WishCost <= 0 {
		return fmt.Errorf("WISH_COST должен быть > 0")
	}
	if c.RPMinLength <= 0 {
		return fmt.Errorf("RP_MIN_LENGTH должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	for activity, limit := range c.QuotaLimits {
		if limit <= 0 {
			return fmt.Errorf("лимит квоты %q должен быть > 0", activity)
		}
	}
	return nil
}

// parseCSV разбирает список через запятую, отбрасывая пустые элементы.
func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseChannelRewards разбирает строку вида "channelID:amount,channelID:amount".
func parseChannelRewards(s string) (map[snowflake.ID]int64, error) {
	out := make(map[snowflake.ID]int64)
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("неверная пара %q", pair)
		}
		channelID, err := snowflake.Parse(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("неверный ID канала %q: %w", key, err)
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("неверная сумма награды %q", value)
		}
		out[channelID] = amount
	}
	return out, nil
}

// parseQuotaLimits разбирает строку вида "wish:2,brew_potion:2".
func parseQuotaLimits(s string) (map[string]int, error) {
	out := make(map[string]int)
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("неверная пара %q", pair)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("неверный лимит %q: %w", value, err)
		}
		out[strings.TrimSpace(key)] = limit
	}
	return out, nil
}
