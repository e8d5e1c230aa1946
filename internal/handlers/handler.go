package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/mediagroup"
	"veo-prompt-studio/internal/prompt"
	"veo-prompt-studio/internal/refimage"
	"veo-prompt-studio/internal/session"
	"veo-prompt-studio/internal/telegram"
)

// Messenger is the part of the Telegram client the bot talks through.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendPhotoDataURL(chatID int64, dataURL string, caption string) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	SendTyping(chatID int64)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type Inspirer interface {
	Inspire(ctx context.Context) (string, error)
}

type Options struct {
	Messenger Messenger
	Inspirer  Inspirer
	Sessions  *session.Store
	Images    refimage.Options
	Logger    *slog.Logger
}

// Handler drives one prompt form per chat through bot commands and pushes
// character previews back into the chat as they finish.
type Handler struct {
	msg        Messenger
	inspirer   Inspirer
	sessions   *session.Store
	images     refimage.Options
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator

	mu      sync.Mutex
	watched map[*session.Session]struct{}
	wg      sync.WaitGroup
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		msg:      opts.Messenger,
		inspirer: opts.Inspirer,
		sessions: opts.Sessions,
		images:   opts.Images,
		logger:   logger,
		watched:  make(map[*session.Session]struct{}),
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

// Wait blocks until every preview watcher has stopped. Watchers stop when
// their session is closed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, msg)
	}

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.msg.SendText(chatID, "Gunakan perintah untuk mengisi formulir. Ketik /help untuk daftar perintah.")
	}
	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.applyPhotos(ctx, group.ChatID, group.Caption, group.FileIDs); err != nil {
		h.logger.Error("media group processing failed", "chat_id", group.ChatID, "err", err)
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, msg *telegram.Message) error {
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			MediaGroupID: msg.MediaGroupID,
			MessageID:    msg.MessageID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	return h.applyPhotos(ctx, chatID, msg.Caption, []string{fileID})
}

// applyPhotos stores photos captioned /ref <n> or /clothref <n> on
// character n. With /ref a second photo becomes the clothing reference.
func (h *Handler) applyPhotos(ctx context.Context, chatID int64, caption string, fileIDs []string) error {
	cmd, args := parseCommand(caption)

	var slots []prompt.ImageSlot
	switch cmd {
	case "ref":
		slots = []prompt.ImageSlot{prompt.SlotReference, prompt.SlotClothingReference}
	case "clothref":
		slots = []prompt.ImageSlot{prompt.SlotClothingReference}
	default:
		return h.msg.SendText(chatID, "Beri keterangan /ref <nomor> atau /clothref <nomor> pada foto untuk memakainya sebagai referensi karakter.")
	}
	if len(fileIDs) > len(slots) {
		fileIDs = fileIDs[:len(slots)]
	}

	sess := h.session(chatID)
	idx, c, err := characterAt(sess.Snapshot(), args)
	if err != nil {
		return h.replyErr(chatID, err)
	}

	h.msg.SendTyping(chatID)

	files := make([][]byte, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			data, err := h.msg.DownloadFile(egCtx, fileID)
			if err != nil {
				return err
			}
			files[i] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "chat_id", chatID, "err", err)
		return h.msg.SendText(chatID, "❌ Gagal mengunduh foto. Silakan kirim ulang.")
	}

	for i, data := range files {
		name := fmt.Sprintf("telegram-%s.jpg", slots[i])
		if _, err := sess.UploadImage(c.ID, slots[i], name, data, h.images); err != nil {
			return h.replyErr(chatID, err)
		}
	}

	return h.msg.SendText(chatID, fmt.Sprintf("✅ %s disimpan untuk %s.", slotsLabel(slots[:len(files)]), characterLabel(c, idx+1)))
}

// session returns the chat's form and makes sure its previews are pushed to
// the chat.
func (h *Handler) session(chatID int64) *session.Session {
	sess := h.sessions.GetOrCreate(fmt.Sprintf("tg:%d", chatID))

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watched[sess]; ok {
		return sess
	}
	h.watched[sess] = struct{}{}

	events, _ := sess.Subscribe()
	h.wg.Add(1)
	go h.watch(chatID, sess, events)
	return sess
}

func (h *Handler) watch(chatID int64, sess *session.Session, events <-chan session.Event) {
	defer h.wg.Done()
	defer func() {
		h.mu.Lock()
		delete(h.watched, sess)
		h.mu.Unlock()
	}()

	sent := make(map[string]string)
	for ev := range events {
		switch ev.Type {
		case session.EventPreview:
			if ev.State == nil {
				continue
			}
			idx, c, ok := findCharacter(*ev.State, ev.CharacterID)
			if !ok || c.PreviewImageURL == "" || sent[c.ID] == c.PreviewImageURL {
				continue
			}
			sent[c.ID] = c.PreviewImageURL

			caption := "Pratinjau " + characterLabel(c, idx+1)
			if c.PreviewDescription != "" {
				caption += "\n\n" + c.PreviewDescription
			}
			if err := h.msg.SendPhotoDataURL(chatID, c.PreviewImageURL, caption); err != nil {
				h.logger.Warn("preview push failed", "chat_id", chatID, "character_id", c.ID, "err", err)
			}
		case session.EventError:
			if ev.CharacterID == "" {
				continue
			}
			if err := h.msg.SendText(chatID, "❌ "+ev.Message); err != nil {
				h.logger.Warn("preview error push failed", "chat_id", chatID, "err", err)
			}
		}
	}
}

func (h *Handler) replyErr(chatID int64, err error) error {
	if apperr.KindOf(err) == "" {
		h.logger.Error("command failed", "chat_id", chatID, "err", err)
	}
	return h.msg.SendText(chatID, "❌ "+apperr.UserMessage(err))
}

func findCharacter(st prompt.State, id string) (int, prompt.Character, bool) {
	for i, c := range st.Characters {
		if c.ID == id {
			return i, c, true
		}
	}
	return -1, prompt.Character{}, false
}

func characterLabel(c prompt.Character, n int) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return fmt.Sprintf("karakter %d (%s)", n, name)
	}
	return fmt.Sprintf("karakter %d", n)
}

func slotsLabel(slots []prompt.ImageSlot) string {
	if len(slots) == 2 {
		return "Foto referensi dan foto pakaian"
	}
	if slots[0] == prompt.SlotClothingReference {
		return "Foto pakaian"
	}
	return "Foto referensi"
}
