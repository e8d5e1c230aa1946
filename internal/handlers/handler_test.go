package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"veo-prompt-studio/internal/mediagroup"
	"veo-prompt-studio/internal/prompt"
	"veo-prompt-studio/internal/session"
	"veo-prompt-studio/internal/telegram"
)

const chatID int64 = 42

type sentPhoto struct {
	dataURL string
	caption string
}

type fakeMessenger struct {
	mu     sync.Mutex
	texts  []string
	photos []sentPhoto
	docs   map[string][]byte
	files  map[string][]byte
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{docs: map[string][]byte{}, files: map[string][]byte{}}
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendPhotoDataURL(_ int64, dataURL, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{dataURL, caption})
	return nil
}

func (f *fakeMessenger) SendDocument(_ int64, name string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[name] = data
	return nil
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (f *fakeMessenger) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeMessenger) photoCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.photos)
}

type fakeInspirer struct{ idea string }

func (f fakeInspirer) Inspire(context.Context) (string, error) { return f.idea, nil }

type stubPreviews struct{}

func (stubPreviews) DescribeCharacter(_ context.Context, c prompt.Character) (string, error) {
	return "gambaran " + c.Clothing, nil
}

func (stubPreviews) RenderCharacter(_ context.Context, c prompt.Character, _ string, _ prompt.State) (string, error) {
	return "data:image/jpeg;base64,AAAA" + strings.ReplaceAll(c.Clothing, " ", ""), nil
}

func newTestHandler(t *testing.T, opts session.Options) (*Handler, *fakeMessenger, *session.Store) {
	t.Helper()
	store := session.NewStore(opts)
	msg := newFakeMessenger()
	h := New(Options{Messenger: msg, Inspirer: fakeInspirer{idea: "Seekor naga menari."}, Sessions: store})
	t.Cleanup(func() {
		store.Close()
		h.Wait()
	})
	return h, msg, store
}

func run(t *testing.T, h *Handler, text string) {
	t.Helper()
	cmd, args := parseCommand(text)
	if err := h.handleCommand(context.Background(), chatID, cmd, args); err != nil {
		t.Fatalf("%s: %v", text, err)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantCmd  string
		wantArgs string
	}{
		{"/ref 1", "ref", "1"},
		{"  /Set@VeoBot  camera.style   Cinematic ", "set", "camera.style   Cinematic"},
		{"/json", "json", ""},
		{"halo", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		cmd, args := parseCommand(tt.in)
		if cmd != tt.wantCmd || args != tt.wantArgs {
			t.Errorf("parseCommand(%q): expected %q %q, got %q %q", tt.in, tt.wantCmd, tt.wantArgs, cmd, args)
		}
	}
}

func TestPickOption(t *testing.T) {
	movements := prompt.Options()["camera.movement"]
	tests := []struct {
		name    string
		options []string
		value   string
		want    string
	}{
		{"number skips empty choice", movements, "1", "Static (Kamera diam, tidak bergerak)"},
		{"plain list", prompt.OutputModels(), "2", prompt.ModelVeo2},
		{"out of range", movements, "99", "99"},
		{"zero", movements, "0", "0"},
		{"text passes through", movements, " Pan ", "Pan"},
		{"no options", nil, "7", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickOption(tt.options, tt.value); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSetAndRender(t *testing.T) {
	h, msg, store := newTestHandler(t, session.Options{})

	run(t, h, "/set mainDescription A cat plays.")
	if got := msg.last(); got != "✅ mainDescription = A cat plays." {
		t.Errorf("Unexpected reply %q", got)
	}

	run(t, h, "/set camera.movement 1")
	sess, _ := store.Get("tg:42")
	if got := sess.Snapshot().Camera.Movement; got != "Static (Kamera diam, tidak bergerak)" {
		t.Errorf("Expected numeric option pick, got %q", got)
	}
	run(t, h, "/set camera.movement")
	if got := msg.last(); got != "✅ camera.movement dikosongkan." {
		t.Errorf("Unexpected reply %q", got)
	}

	run(t, h, "/set nope x")
	if got := msg.last(); got != "❌ field \"nope\" tidak dikenal" {
		t.Errorf("Unexpected reply %q", got)
	}

	run(t, h, "/render en")
	if got := msg.last(); got != "A cat plays." {
		t.Errorf("Expected the rendered prompt, got %q", got)
	}

	run(t, h, "/json")
	if doc := string(msg.docs["veo-prompt.json"]); !strings.Contains(doc, "\"main_description\": \"A cat plays.\"") {
		t.Errorf("Expected the JSON document, got %s", doc)
	}
}

func TestRenderEmptyForm(t *testing.T) {
	h, msg, _ := newTestHandler(t, session.Options{})

	run(t, h, "/render")
	if got := msg.last(); !strings.HasPrefix(got, "Formulir masih kosong.") {
		t.Errorf("Expected the empty form hint, got %q", got)
	}
}

func TestTemplateAndModel(t *testing.T) {
	h, msg, store := newTestHandler(t, session.Options{})

	run(t, h, "/template")
	if got := msg.last(); !strings.HasPrefix(got, "Template:\n1. Trailer Sinematik") {
		t.Errorf("Expected the template list, got %q", got)
	}

	run(t, h, "/template 1")
	sess, _ := store.Get("tg:42")
	if got := sess.Snapshot().Camera.Style; got != "Cinematic" {
		t.Errorf("Expected the first template to apply, got %q", got)
	}

	run(t, h, "/template Tidak Ada")
	if got := msg.last(); !strings.HasPrefix(got, "❌ template") {
		t.Errorf("Expected an unknown template error, got %q", got)
	}

	run(t, h, "/model image")
	if got := sess.Snapshot().OutputModel; got != prompt.ModelImage {
		t.Errorf("Expected image model, got %q", got)
	}
}

func TestCharacterCommands(t *testing.T) {
	h, msg, store := newTestHandler(t, session.Options{})

	run(t, h, "/char add")
	run(t, h, "/char set 1 name Mio")
	run(t, h, "/char set 1 characteristics rambut pendek, ceria")
	sess, _ := store.Get("tg:42")
	st := sess.Snapshot()
	if len(st.Characters) != 1 || st.Characters[0].Name != "Mio" || st.Characters[0].Characteristics != "rambut pendek, ceria" {
		t.Fatalf("Unexpected characters %+v", st.Characters)
	}

	tests := []struct {
		cmd  string
		want string
	}{
		{"/char set 2 name X", "❌ karakter 2 tidak ada"},
		{"/char set x name X", "❌ nomor karakter tidak valid: \"x\""},
		{"/char set 1 height 2m", "❌ field karakter \"height\" tidak dikenal"},
		{"/char rmimg 1 face", "❌ slot gambar harus reference atau clothing"},
		{"/char", "Gunakan /char add, /char rm <n>, /char set <n> <field> <nilai> atau /char rmimg <n> <reference|clothing>."},
		{"/char rm 1", "✅ karakter 1 (Mio) dihapus."},
	}
	for _, tt := range tests {
		run(t, h, tt.cmd)
		if got := msg.last(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.cmd, tt.want, got)
		}
	}
}

func TestDialogueCommands(t *testing.T) {
	h, _, store := newTestHandler(t, session.Options{})

	run(t, h, "/dialog add")
	run(t, h, "/dialog set 1 speaker Mio")
	run(t, h, "/dialog set 1 content Halo semuanya!")
	run(t, h, "/dialog set 1 language 2")

	sess, _ := store.Get("tg:42")
	d := sess.Snapshot().Audio.Dialogues
	if len(d) != 1 || d[0].Speaker != "Mio" || d[0].Content != "Halo semuanya!" || d[0].Language != "Inggris" {
		t.Fatalf("Unexpected dialogues %+v", d)
	}

	run(t, h, "/dialog rm 1")
	if n := len(sess.Snapshot().Audio.Dialogues); n != 0 {
		t.Errorf("Expected no dialogues, got %d", n)
	}
}

func TestInspireAndState(t *testing.T) {
	h, msg, _ := newTestHandler(t, session.Options{})

	run(t, h, "/inspire")
	if got := msg.last(); got != "💡 Seekor naga menari." {
		t.Errorf("Unexpected reply %q", got)
	}

	run(t, h, "/char add")
	run(t, h, "/state")
	got := msg.last()
	for _, want := range []string{"mainDescription: Seekor naga menari.", "outputModel: veo-3.0-generate-001", "Karakter 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in the summary, got %q", want, got)
		}
	}

	run(t, h, "/reset")
	run(t, h, "/state")
	if got := msg.last(); strings.Contains(got, "Karakter") {
		t.Errorf("Expected an empty form after reset, got %q", got)
	}
}

func TestReferencePhotos(t *testing.T) {
	h, msg, store := newTestHandler(t, session.Options{})
	msg.files["face"] = pngBytes(t)
	msg.files["outfit"] = pngBytes(t)
	msg.files["broken"] = []byte("nope")

	run(t, h, "/char add")

	h.HandleMediaGroup(context.Background(), mediagroup.Group{ChatID: chatID, Caption: "/ref 1", FileIDs: []string{"face", "outfit"}})
	if got := msg.last(); got != "✅ Foto referensi dan foto pakaian disimpan untuk karakter 1." {
		t.Errorf("Unexpected reply %q", got)
	}
	sess, _ := store.Get("tg:42")
	c := sess.Snapshot().Characters[0]
	if c.ReferenceImage == nil || c.ClothingReferenceImage == nil {
		t.Fatalf("Expected both slots to be filled, got %+v", c)
	}

	if err := h.applyPhotos(context.Background(), chatID, "/clothref 1", []string{"broken"}); err != nil {
		t.Fatalf("applyPhotos: %v", err)
	}
	if got := msg.last(); !strings.HasPrefix(got, "❌ Gagal memproses gambar pakaian.") {
		t.Errorf("Expected the clothing failure message, got %q", got)
	}
	if c := sess.Snapshot().Characters[0]; c.ClothingReferenceImage != nil {
		t.Errorf("Expected the clothing slot to be emptied")
	}

	tests := []struct {
		caption string
		files   []string
		want    string
	}{
		{"", []string{"face"}, "Beri keterangan /ref <nomor> atau /clothref <nomor> pada foto untuk memakainya sebagai referensi karakter."},
		{"/ref 3", []string{"face"}, "❌ karakter 3 tidak ada"},
		{"/ref 1", []string{"missing"}, "❌ Gagal mengunduh foto. Silakan kirim ulang."},
	}
	for _, tt := range tests {
		if err := h.applyPhotos(context.Background(), chatID, tt.caption, tt.files); err != nil {
			t.Fatalf("applyPhotos(%q): %v", tt.caption, err)
		}
		if got := msg.last(); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.caption, tt.want, got)
		}
	}
}

func TestHandleUpdateRoutesCommands(t *testing.T) {
	h, msg, _ := newTestHandler(t, session.Options{})

	update := telegram.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     "/set visualStyle Anime",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 4}},
	}}
	if err := h.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if got := msg.last(); got != "✅ visualStyle = Anime" {
		t.Errorf("Unexpected reply %q", got)
	}

	update = telegram.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "halo"}}
	if err := h.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if got := msg.last(); !strings.HasPrefix(got, "Gunakan perintah") {
		t.Errorf("Expected a usage hint, got %q", got)
	}

	if err := h.HandleUpdate(context.Background(), telegram.Update{}); err != nil {
		t.Errorf("Expected updates without a message to be ignored, got %v", err)
	}
}

func TestPreviewsArePushed(t *testing.T) {
	h, msg, _ := newTestHandler(t, session.Options{Previews: stubPreviews{}, PreviewDelay: 10 * time.Millisecond})

	run(t, h, "/char add")
	run(t, h, "/char set 1 name Mio")
	run(t, h, "/char set 1 clothing jaket merah")

	deadline := time.Now().Add(2 * time.Second)
	for msg.photoCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	msg.mu.Lock()
	defer msg.mu.Unlock()
	if len(msg.photos) != 1 {
		t.Fatalf("Expected one preview photo, got %d", len(msg.photos))
	}
	p := msg.photos[0]
	if p.dataURL != "data:image/jpeg;base64,AAAAjaketmerah" {
		t.Errorf("Unexpected preview image %q", p.dataURL)
	}
	if p.caption != "Pratinjau karakter 1 (Mio)\n\ngambaran jaket merah" {
		t.Errorf("Unexpected caption %q", p.caption)
	}
}

func TestWaitReturnsAfterStoreClose(t *testing.T) {
	h, _, store := newTestHandler(t, session.Options{})

	run(t, h, "/state")
	store.Close()
	run(t, h, "/state")

	if n := store.Len(); n != 0 {
		t.Errorf("Expected no sessions after Close, got %d", n)
	}

	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Wait to return once the store is closed")
	}
}
