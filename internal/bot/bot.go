package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/bot/keyboards"
	"github.com/pzhukov/medminder/internal/bot/menus"
	"github.com/pzhukov/medminder/internal/bot/state"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
	"github.com/pzhukov/medminder/internal/services"
	"github.com/pzhukov/medminder/internal/utils"
)

// Bot is the interactive front-end. It is a thin shell: every business
// operation goes through the coordinator or the store services.
type Bot struct {
	api         *tgbotapi.BotAPI
	notifier    *Notifier
	coordinator *services.Coordinator
	inventory   *services.InventoryService
	schedules   *services.ScheduleService
	activities  *services.ActivityService
	contacts    *services.ContactService
	tips        *services.TipsService
	states      state.Tracker
}

func NewBot(
	api *tgbotapi.BotAPI,
	notifier *Notifier,
	coordinator *services.Coordinator,
	inventory *services.InventoryService,
	schedules *services.ScheduleService,
	activities *services.ActivityService,
	contacts *services.ContactService,
	tips *services.TipsService,
	states state.Tracker,
) *Bot {
	return &Bot{
		api:         api,
		notifier:    notifier,
		coordinator: coordinator,
		inventory:   inventory,
		schedules:   schedules,
		activities:  activities,
		contacts:    contacts,
		tips:        tips,
		states:      states,
	}
}

// Start runs the update loop until the context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	logger.Info("Bot started", "account", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if err := b.handleUpdate(ctx, update); err != nil {
				logger.Error("Failed to handle update", "error", err)
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil && update.CallbackQuery == nil {
		return nil
	}

	if update.CallbackQuery != nil {
		callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
		if _, err := b.api.Request(callback); err != nil {
			logger.Warn("Failed to answer callback query", "error", err)
		}
		return b.handleCallbackQuery(ctx, update.CallbackQuery)
	}

	if update.Message.IsCommand() {
		return b.handleCommand(ctx, update.Message)
	}
	if update.Message.Text != "" {
		return b.handleText(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		b.states.ClearUserState(message.From.ID)
		b.notifier.SetChatID(chatID)
		return menus.SendMainMenu(b.api, chatID)
	case "help":
		msg := tgbotapi.NewMessage(chatID, `Available commands:
/start - Show the main menu
/help - Show this message

Reminders arrive at each scheduled time with Taken/Missed buttons. Low-stock alerts fire whenever a medicine drops to the threshold.`)
		_, err := b.api.Send(msg)
		return err
	default:
		msg := tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see the available commands.")
		_, err := b.api.Send(msg)
		return err
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	data := query.Data

	if id, ok := strings.CutPrefix(data, "take:"); ok {
		return b.handleOutcome(ctx, chatID, id, domain.OutcomeTake)
	}
	if id, ok := strings.CutPrefix(data, "miss:"); ok {
		b.states.SetUserState(userID, state.WaitingForMissReason+":"+id)
		return b.send(chatID,
			"Why did you miss it? Reply with a short reason, or send - to record it without one.",
			keyboards.BackToMenu())
	}
	if id, ok := strings.CutPrefix(data, "del_sched:"); ok {
		if err := b.coordinator.DeleteSchedule(ctx, id); err != nil {
			return b.sendError(chatID, err)
		}
		return b.send(chatID, "🗑 Medication deleted and its reminder canceled.", keyboards.BackToMenu())
	}

	switch data {
	case "inventory":
		return b.sendInventory(ctx, chatID)
	case "medications":
		return b.sendMedications(ctx, chatID)
	case "stats":
		return b.sendStats(ctx, chatID)
	case "contacts":
		return b.sendContacts(ctx, chatID)
	case "tip":
		tip, err := b.tips.TipOfTheDay(ctx)
		if err != nil {
			return b.sendError(chatID, err)
		}
		return b.send(chatID, "💡 "+tip, keyboards.BackToMenu())
	case "add_medicine":
		b.states.SetUserState(userID, state.WaitingForMedicine)
		return menus.SendAddMedicinePrompt(b.api, chatID)
	case "add_schedule":
		b.states.SetUserState(userID, state.WaitingForSchedule)
		return menus.SendAddSchedulePrompt(b.api, chatID)
	case "add_contact":
		b.states.SetUserState(userID, state.WaitingForContact)
		return menus.SendAddContactPrompt(b.api, chatID)
	case "main_menu":
		b.states.ClearUserState(userID)
		return menus.SendMainMenu(b.api, chatID)
	}
	return nil
}

func (b *Bot) handleOutcome(ctx context.Context, chatID int64, medicationID string, outcome domain.MedicationOutcome) error {
	if err := b.coordinator.MarkAction(ctx, medicationID, outcome); err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return b.send(chatID, "This medication no longer exists.", keyboards.BackToMenu())
		}
		return b.sendError(chatID, err)
	}
	text := "✅ Marked as taken. Well done!"
	if outcome == domain.OutcomeMiss {
		text = "❌ Marked as missed."
	}
	return b.send(chatID, text, keyboards.BackToMenu())
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	userState := b.states.GetUserState(userID)
	if id, ok := strings.CutPrefix(userState, state.WaitingForMissReason+":"); ok {
		return b.handleMissReasonInput(ctx, chatID, userID, id, message.Text)
	}

	switch userState {
	case state.WaitingForMedicine:
		return b.handleMedicineInput(ctx, chatID, userID, message.Text)
	case state.WaitingForSchedule:
		return b.handleScheduleInput(ctx, chatID, userID, message.Text)
	case state.WaitingForContact:
		return b.handleContactInput(ctx, chatID, userID, message.Text)
	default:
		return b.send(chatID, "Use the menu to pick an action.", keyboards.MainMenu())
	}
}

func (b *Bot) handleMissReasonInput(ctx context.Context, chatID, userID int64, medicationID, text string) error {
	b.states.ClearUserState(userID)

	reason := strings.TrimSpace(text)
	if reason == "-" {
		reason = ""
	}
	if err := b.coordinator.MarkMissed(ctx, medicationID, reason); err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return b.send(chatID, "This medication no longer exists.", keyboards.BackToMenu())
		}
		return b.sendError(chatID, err)
	}
	return b.send(chatID, "❌ Marked as missed.", keyboards.BackToMenu())
}

func (b *Bot) handleMedicineInput(ctx context.Context, chatID, userID int64, text string) error {
	parts := splitFields(text, 3)
	if parts == nil {
		return b.send(chatID, "Please use the format: Name, dosage1/dosage2, quantity", keyboards.BackToMenu())
	}

	quantity, err := parseQuantity(parts[2])
	if err != nil {
		return b.send(chatID, "Please enter a valid quantity (a whole number).", keyboards.BackToMenu())
	}

	item := domain.MedicineStockItem{
		Name:     parts[0],
		Dosages:  splitDosages(parts[1]),
		Quantity: quantity,
	}
	created, err := b.inventory.Add(ctx, item)
	if err != nil {
		return b.sendError(chatID, err)
	}

	b.states.ClearUserState(userID)
	return b.send(chatID,
		fmt.Sprintf("✅ %s added with %d in stock.", created.Name, created.Quantity),
		keyboards.InventoryMenu())
}

func (b *Bot) handleScheduleInput(ctx context.Context, chatID, userID int64, text string) error {
	parts := splitFields(text, 5)
	if parts == nil {
		return b.send(chatID, "Please use the format: Medicine name, dosage, quantity, time, start date", keyboards.BackToMenu())
	}

	med, err := b.findMedicineByName(ctx, parts[0])
	if err != nil {
		return b.sendError(chatID, err)
	}
	quantity, err := parseQuantity(parts[2])
	if err != nil {
		return b.send(chatID, "Please enter a valid quantity (a whole number).", keyboards.BackToMenu())
	}
	clock, err := normalizeClock(parts[3])
	if err != nil {
		return b.send(chatID, "Please enter the time as H:MM AM/PM, e.g. 8:00 AM.", keyboards.BackToMenu())
	}
	startDate, err := time.ParseInLocation("2006-01-02", parts[4], time.Local)
	if err != nil {
		return b.send(chatID, "Please enter the start date as YYYY-MM-DD.", keyboards.BackToMenu())
	}

	result, err := b.coordinator.CreateSchedule(ctx, services.ScheduleRequest{
		MedicineID: med.ID,
		Dosage:     parts[1],
		Quantity:   quantity,
		Time:       clock,
		StartDate:  startDate,
	})
	if err != nil {
		return b.sendError(chatID, err)
	}

	b.states.ClearUserState(userID)
	lines := []string{fmt.Sprintf("✅ %s scheduled for %s starting %s.",
		result.Medication.MedicineName, result.Medication.Time,
		result.Medication.StartDate.Format("Jan 2, 2006"))}
	for _, w := range result.Warnings {
		lines = append(lines, "⚠️ "+w)
	}
	return b.send(chatID, strings.Join(lines, "\n"), keyboards.MedicationsMenu())
}

func (b *Bot) handleContactInput(ctx context.Context, chatID, userID int64, text string) error {
	parts := splitFields(text, 3)
	if parts == nil {
		return b.send(chatID, "Please use the format: Name, phone, relation", keyboards.BackToMenu())
	}

	contact, err := b.contacts.Save(ctx, domain.EmergencyContact{
		Name:     parts[0],
		Phone:    parts[1],
		Relation: parts[2],
	})
	if err != nil {
		return b.sendError(chatID, err)
	}

	b.states.ClearUserState(userID)
	return b.send(chatID, fmt.Sprintf("✅ Contact %s saved.", contact.Name), keyboards.ContactsMenu())
}

func (b *Bot) sendInventory(ctx context.Context, chatID int64) error {
	items, err := b.inventory.List(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(items) == 0 {
		return b.send(chatID, "Your inventory is empty.", keyboards.InventoryMenu())
	}

	var sb strings.Builder
	sb.WriteString("📦 Your medicines:\n")
	for _, item := range items {
		marker := ""
		if item.Quantity <= 3 {
			marker = " 🟠 low stock"
		}
		fmt.Fprintf(&sb, "\n• %s — %d left (%s)%s",
			item.Name, item.Quantity, strings.Join(item.Dosages, ", "), marker)
	}
	return b.send(chatID, sb.String(), keyboards.InventoryMenu())
}

func (b *Bot) sendMedications(ctx context.Context, chatID int64) error {
	entries, err := b.schedules.List(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(entries) == 0 {
		return b.send(chatID, "No medications scheduled yet.", keyboards.MedicationsMenu())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return utils.ClockMinutes(entries[i].Time) < utils.ClockMinutes(entries[j].Time)
	})

	for _, entry := range entries {
		status := "⏳ reminder pending"
		switch entry.NotificationState {
		case domain.NotificationScheduled:
			status = "🔔 reminder set"
		case domain.NotificationFired:
			status = "⏰ reminder delivered"
		case domain.NotificationUnscheduled, domain.NotificationCanceled:
			status = "🔕 no reminder"
		}
		if entry.IsTaken {
			status = "✅ taken"
		} else if !entry.NeedsAction {
			status = "❌ missed"
		}
		text := fmt.Sprintf("💊 %s (%s)\n🕐 %s, starts %s\n%s",
			entry.MedicineName, entry.Dosage, entry.Time,
			entry.StartDate.Format("Jan 2, 2006"), status)
		if err := b.send(chatID, text, keyboards.ScheduleActions(entry.ID)); err != nil {
			return err
		}
	}
	return b.send(chatID, "Manage your medications:", keyboards.MedicationsMenu())
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) error {
	stats, err := b.activities.AdherenceStats(ctx, "")
	if err != nil {
		return b.sendError(chatID, err)
	}
	recent, err := b.activities.Query(ctx, domain.ActivityFilter{})
	if err != nil {
		return b.sendError(chatID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 Adherence: %d%% (%d taken, %d missed)\n",
		stats.AdherenceRate, stats.Taken, stats.Missed)
	if len(recent) > 0 {
		sb.WriteString("\nRecent activity:")
		limit := 5
		if len(recent) < limit {
			limit = len(recent)
		}
		for _, entry := range recent[:limit] {
			fmt.Fprintf(&sb, "\n• %s (%s %s)", entry.Text, entry.Date, entry.Time)
		}
	}
	return b.send(chatID, sb.String(), keyboards.BackToMenu())
}

func (b *Bot) sendContacts(ctx context.Context, chatID int64) error {
	contacts, err := b.contacts.List(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(contacts) == 0 {
		return b.send(chatID, "No emergency contacts yet.", keyboards.ContactsMenu())
	}

	var sb strings.Builder
	sb.WriteString("📞 Emergency contacts:\n")
	for _, c := range contacts {
		fmt.Fprintf(&sb, "\n• %s (%s) — %s", c.Name, c.Relation, c.Phone)
	}
	return b.send(chatID, sb.String(), keyboards.ContactsMenu())
}

func (b *Bot) send(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendError(chatID int64, err error) error {
	var appErr *apperrors.AppError
	text := "Something went wrong. Please try again."
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperrors.KindValidation, apperrors.KindInsufficientStock, apperrors.KindNotFound:
			text = "⚠️ " + strings.ToUpper(appErr.Message[:1]) + appErr.Message[1:]
		}
	}
	logger.Warn("User-facing error", "error", err)
	return b.send(chatID, text, keyboards.BackToMenu())
}

func (b *Bot) findMedicineByName(ctx context.Context, name string) (*domain.MedicineStockItem, error) {
	items, err := b.inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			return &items[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("medicine %q is not in your inventory", name))
}

// splitFields splits a comma-separated input line into exactly n trimmed
// fields, returning nil when the shape is wrong.
func splitFields(text string, n int) []string {
	parts := strings.SplitN(text, ",", n)
	if len(parts) != n {
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil
		}
	}
	return parts
}

func splitDosages(text string) []string {
	raw := strings.Split(text, "/")
	dosages := make([]string, 0, len(raw))
	for _, d := range raw {
		if d = strings.TrimSpace(d); d != "" {
			dosages = append(dosages, d)
		}
	}
	return dosages
}

// normalizeClock validates the user's time input and renders it in the
// canonical "H:MM AM/PM" form the stores expect.
func normalizeClock(text string) (string, error) {
	hour, minute, err := utils.ParseClock(text)
	if err != nil {
		return "", err
	}
	return utils.FormatClock(time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)), nil
}

func parseQuantity(text string) (int, error) {
	var quantity int
	if _, err := fmt.Sscanf(text, "%d", &quantity); err != nil {
		return 0, err
	}
	return quantity, nil
}
