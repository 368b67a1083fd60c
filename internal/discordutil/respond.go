// Package discordutil содержит общие помощники для ответов
// на взаимодействия Discord. Используется всеми обработчиками команд.
package discordutil

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	log "github.com/sirupsen/logrus"
)

// Text отвечает на взаимодействие обычным текстом.
func Text(e *events.ApplicationCommandInteractionCreate, content string, ephemeral bool) {
	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на взаимодействие")
	}
}

// Embed отвечает на взаимодействие embed-ом.
func Embed(e *events.ApplicationCommandInteractionCreate, embed discord.Embed, ephemeral bool) {
	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на взаимодействие")
	}
}

// Error отвечает эфемерным сообщением об ошибке.
func Error(e *events.ApplicationCommandInteractionCreate, content string) {
	Text(e, "❌ "+content, true)
}

// MemberRoleIDs возвращает роли участника, вызвавшего команду.
func MemberRoleIDs(e *events.ApplicationCommandInteractionCreate) []snowflake.ID {
	if member := e.Member(); member != nil {
		return member.RoleIDs
	}
	return nil
}

// ComponentText отвечает на взаимодействие с компонентом (кнопка, меню).
func ComponentText(e *events.ComponentInteractionCreate, content string, ephemeral bool) {
	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на компонент")
	}
}

// ComponentEmbed отвечает на взаимодействие с компонентом embed-ом.
func ComponentEmbed(e *events.ComponentInteractionCreate, embed discord.Embed, ephemeral bool) {
	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на компонент")
	}
}

// ComponentError отвечает на компонент эфемерным сообщением об ошибке.
func ComponentError(e *events.ComponentInteractionCreate, content string) {
	ComponentText(e, "❌ "+content, true)
}

// ModalText отвечает на отправку модальной формы.
func ModalText(e *events.ModalSubmitInteractionCreate, content string, ephemeral bool) {
	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на модальную форму")
	}
}

// ModalError отвечает на модальную форму эфемерным сообщением об ошибке.
func ModalError(e *events.ModalSubmitInteractionCreate, content string) {
	ModalText(e, "❌ "+content, true)
}
