package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start and /bantuan. The bot serves a closed group of teachers, so
// there is no onboarding; /start goes straight to the main menu.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start and /bantuan commands.
type StartHandler struct {
	keyboards  *presenter.KeyboardBuilder
	schoolName string
}

// NewStartHandler creates a StartHandler.
func NewStartHandler(keyboards *presenter.KeyboardBuilder, schoolName string) *StartHandler {
	if schoolName == "" {
		schoolName = "SK Labu Besar"
	}
	return &StartHandler{keyboards: keyboards, schoolName: schoolName}
}

// Start greets the teacher and shows the main menu.
func (h *StartHandler) Start(ctx context.Context, firstName string) (*Response, error) {
	greeting := "Assalamualaikum dan salam sejahtera"
	if name := strings.TrimSpace(firstName); name != "" {
		greeting = fmt.Sprintf("%s, Cikgu %s", greeting, name)
	}

	body := fmt.Sprintf(
		"%s! 👋\n\n🏫 <b>Bot Kehadiran %s</b>\n\nSaya membantu merekod kehadiran harian kelas. Pilih tindakan di bawah atau gunakan arahan:\n\n/rekod - rekod kehadiran kelas\n/semak - semak rekod kehadiran\n/statistik - ranking kehadiran\n/rmt - senarai murid RMT\n/bantuan - panduan penggunaan",
		greeting, h.schoolName,
	)

	return &Response{Text: body, Keyboard: h.keyboards.MainMenuKeyboard()}, nil
}

// Menu re-renders the main menu, used by the back buttons.
func (h *StartHandler) Menu(ctx context.Context) (*Response, error) {
	body := fmt.Sprintf("🏫 <b>Bot Kehadiran %s</b>\n\nPilih tindakan:", h.schoolName)
	return edit(body, h.keyboards.MainMenuKeyboard()), nil
}

// Help explains the recording flow.
func (h *StartHandler) Help(ctx context.Context) (*Response, error) {
	body := "📖 <b>Panduan Bot Kehadiran</b>\n\n" +
		"<b>1. Rekod kehadiran</b>\n" +
		"Taip /rekod, pilih kelas, kemudian tekan nama murid yang tidak hadir. Tekan 💾 Simpan apabila selesai.\n\n" +
		"<b>2. Semua hadir</b>\n" +
		"Jika tiada murid tidak hadir, tekan ✅ Semua Hadir untuk simpan terus.\n\n" +
		"<b>3. Semak rekod</b>\n" +
		"Taip /semak, pilih hari (hari ini, semalam atau tarikh lain) dan kelas.\n\n" +
		"<b>4. Statistik</b>\n" +
		"Taip /statistik untuk ranking mingguan, bulanan dan perbandingan ikut tahun.\n\n" +
		"Rekod yang sudah wujud tidak akan diganti tanpa pengesahan anda."

	return text(body), nil
}
