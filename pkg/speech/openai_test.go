package speech_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/speech"
)

var _ = Describe("OpenAI speech capabilities", func() {
	var (
		ctx        context.Context
		server     *httptest.Server
		cfg        openai.ClientConfig
		speechHits int
		lastInput  string
	)

	BeforeEach(func() {
		ctx = context.Background()
		speechHits = 0
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			speechHits++
			var body struct {
				Input string `json:"input"`
				Voice string `json:"voice"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			lastInput = body.Input
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = io.WriteString(w, "ID3-fake-mp3:"+body.Input)
		})
		mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
			Expect(r.FormValue("model")).To(Equal("whisper-1"))
			file, header, err := r.FormFile("file")
			Expect(err).NotTo(HaveOccurred())
			defer file.Close()
			Expect(header.Filename).To(Equal("clip.wav"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"text": "  hello there \n"}`)
		})
		server = httptest.NewServer(mux)

		cfg = openai.DefaultConfig("sk-test")
		cfg.BaseURL = server.URL + "/v1"
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("OpenAIRecognizer", func() {
		It("transcribes one utterance", func() {
			r := speech.NewOpenAIRecognizer(cfg, "whisper-1", zap.NewNop())

			text, err := r.Recognize(ctx, speech.Audio{Name: "clip.wav", Reader: strings.NewReader("RIFF....WAVE")})
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("hello there"))
		})
	})

	Describe("OpenAISynthesizer", func() {
		It("writes the audio to the sink", func() {
			sink := speech.DirSink{Dir: GinkgoT().TempDir()}
			s := speech.NewOpenAISynthesizer(cfg, "tts-1", "alloy", sink, zap.NewNop())

			Expect(s.Speak(ctx, "Hello back")).To(Succeed())
			Expect(lastInput).To(Equal("Hello back"))

			data, err := os.ReadFile(sink.Path(speech.Key("Hello back")))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("ID3-fake-mp3:Hello back"))
		})

		It("can speak the same text repeatedly", func() {
			sink := speech.DirSink{Dir: GinkgoT().TempDir()}
			s := speech.NewOpenAISynthesizer(cfg, "tts-1", "alloy", sink, zap.NewNop())

			Expect(s.Speak(ctx, "again")).To(Succeed())
			Expect(s.Speak(ctx, "again")).To(Succeed())
			Expect(speechHits).To(Equal(2))

			entries, err := os.ReadDir(sink.Dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})
})

var _ = Describe("Key", func() {
	It("is stable for equal text and differs otherwise", func() {
		Expect(speech.Key("a")).To(Equal(speech.Key("a")))
		Expect(speech.Key("a")).NotTo(Equal(speech.Key("b")))
		Expect(speech.Key("a")).To(HaveLen(12))
	})
})
