// Package access проверяет права участников по ИМЕНАМ ролей.
//
// Права в сообществе привязаны к названиям ролей («Empress of TRA»,
// «Vault Keeper»), а не к их ID: роли пересоздаются и переименовываются
// администрацией, и конфиг с именами переживает это без правок.
// Список ролей гильдии запрашивается через REST и кэшируется с TTL.
package access

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"
)

// rolesTTL ограничивает частоту запросов списка ролей к Discord.
const rolesTTL = 5 * time.Minute

// Checker проверяет принадлежность участника к именованным ролям.
type Checker struct {
	rest    rest.Rest
	guildID snowflake.ID

	mu        sync.Mutex
	roleNames map[snowflake.ID]string // ID роли -> имя
	fetchedAt time.Time
}

// NewChecker создаёт проверяльщик прав для одной гильдии.
func NewChecker(restClient rest.Rest, guildID snowflake.ID) *Checker {
	return &Checker{
		rest:      restClient,
		guildID:   guildID,
		roleNames: make(map[snowflake.ID]string),
	}
}

// HasAnyRole сообщает, есть ли у участника хотя бы одна из указанных ролей.
// При недоступности Discord API доступ НЕ выдаётся.
func (c *Checker) HasAnyRole(ctx context.Context, memberRoles []snowflake.ID, allowed []string) bool {
	names, err := c.names(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось получить роли гильдии, доступ запрещён")
		return false
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}
	for _, roleID := range memberRoles {
		if _, ok := allowedSet[names[roleID]]; ok {
			return true
		}
	}
	return false
}

// HasRole сообщает, есть ли у участника роль с указанным именем.
func (c *Checker) HasRole(ctx context.Context, memberRoles []snowflake.ID, name string) bool {
	return c.HasAnyRole(ctx, memberRoles, []string{name})
}

// RoleIDByName возвращает ID роли по её имени.
func (c *Checker) RoleIDByName(ctx context.Context, name string) (snowflake.ID, bool) {
	names, err := c.names(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось получить роли гильдии")
		return 0, false
	}
	for id, roleName := range names {
		if roleName == name {
			return id, true
		}
	}
	return 0, false
}

// Invalidate сбрасывает кэш ролей. Вызывается при событиях изменения ролей.
func (c *Checker) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

// names возвращает актуальную карту ID -> имя, обновляя кэш по TTL.
func (c *Checker) names(ctx context.Context) (map[snowflake.ID]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetchedAt) < rolesTTL && len(c.roleNames) > 0 {
		return c.roleNames, nil
	}

	roles, err := c.rest.GetRoles(c.guildID)
	if err != nil {
		// При ошибке API отдаём устаревший кэш, если он есть
		if len(c.roleNames) > 0 {
			return c.roleNames, nil
		}
		return nil, err
	}

	fresh := make(map[snowflake.ID]string, len(roles))
	for _, role := range roles {
		fresh[role.ID] = role.Name
	}
	c.roleNames = fresh
	c.fetchedAt = time.Now()
	return c.roleNames, nil
}
