package menus

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pzhukov/medminder/internal/bot/keyboards"
)

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api *tgbotapi.BotAPI, chatID int64) error {
	text := `💊 *MedMinder* — your medication assistant

I keep track of:
• Your medicine inventory and stock levels
• Scheduled medications with reminders
• Taken/missed history and adherence

You'll get a reminder at each scheduled time with *Taken* / *Missed* buttons, and a low-stock alert when a medicine runs out.

Choose an action:`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendAddMedicinePrompt asks for the add-medicine input line
func SendAddMedicinePrompt(api *tgbotapi.BotAPI, chatID int64) error {
	text := `Send the new medicine as one line:

` + "`Name, dosage1/dosage2, quantity`" + `

Example: ` + "`Ibuprofen, 200mg/400mg, 10`"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := api.Send(msg)
	return err
}

// SendAddSchedulePrompt asks for the schedule input line
func SendAddSchedulePrompt(api *tgbotapi.BotAPI, chatID int64) error {
	text := `Send the schedule as one line:

` + "`Medicine name, dosage, quantity, time, start date`" + `

Example: ` + "`Ibuprofen, 200mg, 2, 8:00 AM, 2026-09-01`"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := api.Send(msg)
	return err
}

// SendAddContactPrompt asks for the contact input line
func SendAddContactPrompt(api *tgbotapi.BotAPI, chatID int64) error {
	text := `Send the contact as one line:

` + "`Name, phone, relation`" + `

Example: ` + "`Maria, +4915112345678, sister`"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := api.Send(msg)
	return err
}
