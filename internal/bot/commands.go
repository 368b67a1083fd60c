package bot

import (
	"github.com/disgoorg/disgo/discord"

	"royalacademy.app/discord-bot/internal/features/activities"
)

// commands возвращает полный набор слэш-команд бота.
// Регистрируются только в домашней гильдии (см. Start).
func commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		// --- Экономика ---
		discord.SlashCommandCreate{
			Name:        "balance",
			Description: "Check a Royals balance",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose balance to check (staff only)",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "grant_royals",
			Description: "Grant Royals to a member (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to grant Royals to",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Amount of Royals",
					Required:    true,
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Reason for the grant",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "take_royals",
			Description: "Take Royals from a member (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to take Royals from",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Amount of Royals",
					Required:    true,
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Reason for the deduction",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "transfer",
			Description: "Transfer Royals to another member",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to send Royals to",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Amount of Royals",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "wipe_royals",
			Description: "Wipe a member's balance to zero (supreme staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member whose balance to wipe",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "transactions",
			Description: "Show your recent transactions",
		},

		// --- Квоты и награды за посты ---
		discord.SlashCommandCreate{
			Name:        "reset_activity_limit",
			Description: "Reset a member's weekly activity limit (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member whose limit to reset",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "activity",
					Description: "Which activity to reset; omit to reset all",
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Wishing well", Value: activities.ActivityWish},
						{Name: "Potion brewing", Value: activities.ActivityBrew},
						{Name: "Tea party", Value: activities.ActivityTeaParty},
					},
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "roleplay_stats",
			Description: "Show roleplay post statistics",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose stats to check (staff only)",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "rp_leaderboard",
			Description: "Weekly top 10 roleplay posters",
		},

		// --- Магазин и инвентарь ---
		discord.SlashCommandCreate{
			Name:        "shop",
			Description: "Browse the academy shop",
		},
		discord.SlashCommandCreate{
			Name:        "add_shop_item",
			Description: "Add an item to the shop (shop staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Item name",
					Required:    true,
					MaxLength:   intPtr(100),
				},
				discord.ApplicationCommandOptionString{
					Name:        "shop",
					Description: "Shop the item is sold in",
					Required:    true,
					MaxLength:   intPtr(100),
				},
				discord.ApplicationCommandOptionString{
					Name:        "description",
					Description: "Item description",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "price",
					Description: "Price in Royals",
					Required:    true,
					MinValue:    intPtr(0),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "stock",
					Description: "Stock count, -1 for unlimited",
					MinValue:    intPtr(-1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "image_url",
					Description: "Image shown on purchase",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "edit_shop_item",
			Description: "Edit a shop item (shop staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Item to edit",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "description",
					Description: "New description",
				},
				discord.ApplicationCommandOptionString{
					Name:        "image_url",
					Description: "New image shown on purchase",
				},
				discord.ApplicationCommandOptionInt{
					Name:        "price",
					Description: "New price in Royals",
					MinValue:    intPtr(0),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "stock",
					Description: "New stock count, -1 for unlimited",
					MinValue:    intPtr(-1),
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "remove_shop_item",
			Description: "Remove an item from the shop (shop staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Item to remove",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "sales_history",
			Description: "Recent shop sales (supervisors)",
		},
		discord.SlashCommandCreate{
			Name:        "inventory",
			Description: "Show your inventory",
		},
		discord.SlashCommandCreate{
			Name:        "transfer_item",
			Description: "Gift an item to another member",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to gift the item to",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Item name",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "How many to send",
					MinValue:    intPtr(1),
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "display_item",
			Description: "Display an item on your profile",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Item to display",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "undisplay_item",
			Description: "Clear your profile display",
		},

		// --- Профили ---
		discord.SlashCommandCreate{
			Name:        "setup_profile",
			Description: "Enroll at the academy and create your profile",
		},
		discord.SlashCommandCreate{
			Name:        "profile",
			Description: "Show a profile card",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose profile to show",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "add_id_card",
			Description: "Attach an ID card image to a profile (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Profile owner",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "image_url",
					Description: "ID card image URL",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "remove_id_card",
			Description: "Remove an ID card from a profile (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Profile owner",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "my_id_card",
			Description: "Show an ID card",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose card to show (staff only)",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "delete_profile",
			Description: "Delete a profile and its threads (staff)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Profile owner",
					Required:    true,
				},
			},
		},

		// --- Приём в академию ---
		discord.SlashCommandCreate{
			Name:        "apply",
			Description: "Apply to join the academy",
		},

		// --- Мини-игры ---
		discord.SlashCommandCreate{
			Name:        "wish",
			Description: "Toss a coin into the wishing well",
		},
		discord.SlashCommandCreate{
			Name:        "brew_potion",
			Description: "Brew a potion in the alchemy lab",
		},
		discord.SlashCommandCreate{
			Name:        "host_teaparty",
			Description: "Host a three-round tea party",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "theme",
					Description: "Party theme",
					MaxLength:   intPtr(100),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "max_participants",
					Description: "Seats at the table, host included (2-10)",
					MinValue:    intPtr(2),
					MaxValue:    intPtr(10),
				},
			},
		},
	}
}

func intPtr(v int) *int { return &v }
