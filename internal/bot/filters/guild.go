package filters

import (
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"
)

// GuildFilter отсекает взаимодействия вне домашней гильдии.
// Бот обслуживает ровно одну гильдию: команды регистрируются только в ней,
// но компоненты и модальные формы теоретически могут прилететь откуда угодно.
type GuildFilter struct {
	guildID snowflake.ID
}

func NewGuildFilter(guildID snowflake.ID) *GuildFilter {
	return &GuildFilter{guildID: guildID}
}

func (f *GuildFilter) Allow(guildID *snowflake.ID) bool {
	if f.guildID == 0 {
		log.WithField("component", "GuildFilter").Error("guildID is 0 (config bug)")
		return false
	}
	if guildID == nil {
		log.WithField("component", "GuildFilter").Debug("deny: DM interaction")
		return false
	}
	if *guildID != f.guildID {
		log.WithFields(log.Fields{
			"component": "GuildFilter",
			"guild_id":  *guildID,
		}).Info("deny: foreign guild")
		return false
	}
	return true
}
