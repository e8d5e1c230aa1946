package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/prompt"
)

const helpText = "🎬 Veo Prompt Studio\n\n" +
	"Isi formulir prompt video lewat perintah:\n" +
	"/set <field> <nilai> - isi field (/set tanpa argumen untuk daftar field)\n" +
	"/options <field> - pilihan untuk field, pilih dengan nomornya di /set\n" +
	"/template <nama|nomor> - terapkan template\n" +
	"/model <nama|nomor> - pilih model output\n" +
	"/char add | rm <n> | set <n> <field> <nilai> | rmimg <n> <reference|clothing>\n" +
	"/dialog add | rm <n> | set <n> <speaker|content|language> <nilai>\n" +
	"/render [id|en] - buat prompt\n" +
	"/json - kirim prompt sebagai file JSON\n" +
	"/inspire - minta ide deskripsi utama\n" +
	"/state - tampilkan isi formulir\n" +
	"/reset - kosongkan formulir\n\n" +
	"Kirim foto dengan keterangan /ref <n> untuk foto referensi karakter n " +
	"(foto kedua dalam album menjadi referensi pakaian), atau /clothref <n> untuk foto pakaian."

var characterFields = []string{"name", "nationality", "characteristics", "clothing", "mainAction", "emotion"}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, cmd, args string) error {
	switch cmd {
	case "start", "help":
		h.session(chatID)
		return h.msg.SendText(chatID, helpText)
	case "reset":
		if _, err := h.session(chatID).Reset(); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, "✅ Formulir dikosongkan.")
	case "set":
		return h.cmdSet(chatID, args)
	case "options":
		return h.cmdOptions(chatID, args)
	case "template":
		return h.cmdTemplate(chatID, args)
	case "model":
		return h.cmdModel(chatID, args)
	case "char":
		return h.cmdCharacter(chatID, args)
	case "dialog":
		return h.cmdDialogue(chatID, args)
	case "render":
		return h.cmdRender(chatID, args)
	case "json":
		return h.cmdJSON(chatID)
	case "inspire":
		return h.cmdInspire(ctx, chatID)
	case "state":
		return h.msg.SendText(chatID, summarize(h.session(chatID).Snapshot()))
	case "ref", "clothref":
		return h.msg.SendText(chatID, "Kirim perintah ini sebagai keterangan foto.")
	default:
		return h.msg.SendText(chatID, "❌ Perintah tidak dikenal. Ketik /help.")
	}
}

func (h *Handler) cmdSet(chatID int64, args string) error {
	key, value := cutWord(args)
	if key == "" {
		return h.msg.SendText(chatID, "Field yang bisa diisi:\n"+strings.Join(prompt.FieldKeys(), "\n"))
	}

	value = pickOption(prompt.Options()[key], value)
	if _, err := h.session(chatID).SetField(key, value); err != nil {
		return h.replyErr(chatID, err)
	}
	if value == "" {
		return h.msg.SendText(chatID, fmt.Sprintf("✅ %s dikosongkan.", key))
	}
	return h.msg.SendText(chatID, fmt.Sprintf("✅ %s = %s", key, value))
}

func (h *Handler) cmdOptions(chatID int64, args string) error {
	key, _ := cutWord(args)
	values, ok := prompt.Options()[key]
	if !ok {
		keys := make([]string, 0, len(prompt.FieldKeys()))
		for _, k := range prompt.FieldKeys() {
			if _, ok := prompt.Options()[k]; ok {
				keys = append(keys, k)
			}
		}
		return h.msg.SendText(chatID, "Field dengan pilihan:\n"+strings.Join(keys, "\n"))
	}
	return h.msg.SendText(chatID, key+":\n"+numbered(values))
}

func (h *Handler) cmdTemplate(chatID int64, args string) error {
	names := prompt.TemplateNames()
	name := pickOption(names, strings.TrimSpace(args))
	if name == "" {
		return h.msg.SendText(chatID, "Template:\n"+numbered(names))
	}
	if _, ok := prompt.LookupTemplate(name); !ok {
		return h.replyErr(chatID, apperr.NotFound(fmt.Sprintf("template %q tidak ditemukan", name)))
	}
	if _, err := h.session(chatID).ApplyTemplate(name); err != nil {
		return h.replyErr(chatID, err)
	}
	return h.msg.SendText(chatID, fmt.Sprintf("✅ Template %q diterapkan.", name))
}

func (h *Handler) cmdModel(chatID int64, args string) error {
	models := prompt.OutputModels()
	name := strings.TrimSpace(args)
	if name == "" {
		current := h.session(chatID).Snapshot().OutputModel
		return h.msg.SendText(chatID, fmt.Sprintf("Model saat ini: %s\n\n%s", current, numbered(models)))
	}
	return h.cmdSet(chatID, "outputModel "+pickOption(models, name))
}

func (h *Handler) cmdCharacter(chatID int64, args string) error {
	sess := h.session(chatID)
	action, rest := cutWord(args)

	switch action {
	case "add":
		_, st, err := sess.AddCharacter()
		if err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ Karakter %d ditambahkan. Isi dengan /char set %d <field> <nilai>.", len(st.Characters), len(st.Characters)))
	case "rm":
		idx, c, err := characterAt(sess.Snapshot(), rest)
		if err != nil {
			return h.replyErr(chatID, err)
		}
		if _, err := sess.RemoveCharacter(c.ID); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ %s dihapus.", characterLabel(c, idx+1)))
	case "set":
		n, rest := cutWord(rest)
		field, value := cutWord(rest)
		idx, c, err := characterAt(sess.Snapshot(), n)
		if err != nil {
			return h.replyErr(chatID, err)
		}
		if field == "" {
			return h.msg.SendText(chatID, "Field karakter: "+strings.Join(characterFields, ", "))
		}
		if _, err := sess.UpdateCharacter(c.ID, field, value); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ %s: %s diperbarui.", characterLabel(c, idx+1), field))
	case "rmimg":
		n, slot := cutWord(rest)
		idx, c, err := characterAt(sess.Snapshot(), n)
		if err != nil {
			return h.replyErr(chatID, err)
		}
		s := prompt.ImageSlot(slot)
		if s != prompt.SlotReference && s != prompt.SlotClothingReference {
			return h.replyErr(chatID, apperr.Validation("slot gambar harus reference atau clothing", nil))
		}
		if _, err := sess.ClearImage(c.ID, s); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ %s dihapus dari %s.", slotsLabel([]prompt.ImageSlot{s}), characterLabel(c, idx+1)))
	default:
		return h.msg.SendText(chatID, "Gunakan /char add, /char rm <n>, /char set <n> <field> <nilai> atau /char rmimg <n> <reference|clothing>.")
	}
}

func (h *Handler) cmdDialogue(chatID int64, args string) error {
	sess := h.session(chatID)
	action, rest := cutWord(args)

	switch action {
	case "add":
		_, st, err := sess.AddDialogueLine()
		if err != nil {
			return h.replyErr(chatID, err)
		}
		n := len(st.Audio.Dialogues)
		return h.msg.SendText(chatID, fmt.Sprintf("✅ Dialog %d ditambahkan. Isi dengan /dialog set %d content <teks>.", n, n))
	case "rm":
		st := sess.Snapshot()
		idx, err := indexArg(rest, len(st.Audio.Dialogues), "dialog")
		if err != nil {
			return h.replyErr(chatID, err)
		}
		if _, err := sess.RemoveDialogueLine(st.Audio.Dialogues[idx].ID); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ Dialog %d dihapus.", idx+1))
	case "set":
		n, rest := cutWord(rest)
		field, value := cutWord(rest)
		st := sess.Snapshot()
		idx, err := indexArg(n, len(st.Audio.Dialogues), "dialog")
		if err != nil {
			return h.replyErr(chatID, err)
		}
		if field == "language" {
			value = pickOption(prompt.Options()["dialogue.language"], value)
		}
		if _, err := sess.UpdateDialogueLine(st.Audio.Dialogues[idx].ID, field, value); err != nil {
			return h.replyErr(chatID, err)
		}
		return h.msg.SendText(chatID, fmt.Sprintf("✅ Dialog %d: %s diperbarui.", idx+1, field))
	default:
		return h.msg.SendText(chatID, "Gunakan /dialog add, /dialog rm <n> atau /dialog set <n> <speaker|content|language> <nilai>.")
	}
}

func (h *Handler) cmdRender(chatID int64, args string) error {
	lang := prompt.LangID
	if strings.EqualFold(strings.TrimSpace(args), prompt.LangEN) {
		lang = prompt.LangEN
	}

	out, err := h.session(chatID).Render()
	if err != nil {
		return h.replyErr(chatID, err)
	}

	text := out.Export(prompt.TabText, lang)
	if out.Tab == prompt.TabJSON {
		text += "\n\n" + out.JSON
	}
	if strings.TrimSpace(text) == "" {
		return h.msg.SendText(chatID, "Formulir masih kosong. Mulai dengan /set mainDescription <deskripsi>.")
	}
	return h.msg.SendText(chatID, text)
}

func (h *Handler) cmdJSON(chatID int64) error {
	out, err := h.session(chatID).Render()
	if err != nil {
		return h.replyErr(chatID, err)
	}
	return h.msg.SendDocument(chatID, "veo-prompt.json", []byte(out.JSON), "Prompt JSON")
}

func (h *Handler) cmdInspire(ctx context.Context, chatID int64) error {
	if h.inspirer == nil {
		return h.msg.SendText(chatID, "❌ Fitur inspirasi tidak tersedia.")
	}
	sess := h.session(chatID)
	h.msg.SendTyping(chatID)

	idea, err := h.inspirer.Inspire(ctx)
	if err != nil {
		return h.replyErr(chatID, err)
	}
	if _, err := sess.SetField("mainDescription", idea); err != nil {
		return h.replyErr(chatID, err)
	}
	return h.msg.SendText(chatID, "💡 "+idea)
}

// parseCommand splits "/cmd@bot args" into cmd and args. Text that is not a
// command gives an empty cmd.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	word, rest := cutWord(text[1:])
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), rest
}

func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// characterAt resolves a 1-based character number.
func characterAt(st prompt.State, arg string) (int, prompt.Character, error) {
	idx, err := indexArg(arg, len(st.Characters), "karakter")
	if err != nil {
		return -1, prompt.Character{}, err
	}
	return idx, st.Characters[idx], nil
}

func indexArg(arg string, count int, what string) (int, error) {
	arg = strings.TrimSpace(arg)
	n, err := strconv.Atoi(arg)
	if err != nil {
		return -1, apperr.Validation(fmt.Sprintf("nomor %s tidak valid: %q", what, arg), nil)
	}
	if n < 1 || n > count {
		return -1, apperr.NotFound(fmt.Sprintf("%s %d tidak ada", what, n))
	}
	return n - 1, nil
}

// pickOption maps a 1-based number typed by the user onto options. The
// leading empty choice of a select list is never offered by number. Anything
// else is returned unchanged.
func pickOption(options []string, value string) string {
	value = strings.TrimSpace(value)
	options = offered(options)
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return value
}

func numbered(options []string) string {
	var b strings.Builder
	for i, o := range offered(options) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o)
	}
	return strings.TrimRight(b.String(), "\n")
}

func offered(options []string) []string {
	if len(options) > 0 && options[0] == "" {
		return options[1:]
	}
	return options
}
