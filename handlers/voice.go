package handlers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"salesagent/config"
	"salesagent/models"
	"salesagent/services/conversation"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	MaxDurationSeconds = 60              // 1 minute maximum
	MaxAudioFileSize   = 5 * 1024 * 1024 // 5MB
	AllowedExtension   = ".wav"

	requiredSampleRate = 16000
	requiredChannels   = 1
	requiredBitDepth   = 16
	pcmAudioFormat     = 1
)

// VoiceHandler transcribes short WAV clips and feeds the transcript into the
// session's draft buffer. A recognition failure never mutates the draft; the
// client just sees the listening indicator reset.
type VoiceHandler struct {
	Sessions *conversation.Store
	Logger   *zap.Logger
}

func NewVoiceHandler(sessions *conversation.Store, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{Sessions: sessions, Logger: logger}
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}
	var header waveHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	return &header, nil
}

func validateWave(header *waveHeader) error {
	if string(header.RiffTag[:]) != "RIFF" || string(header.WaveTag[:]) != "WAVE" {
		return errors.New("not a WAV file")
	}
	if header.AudioFormat != pcmAudioFormat {
		return errors.New("audio must be uncompressed PCM")
	}
	if header.NumChannels != requiredChannels {
		return fmt.Errorf("audio must be mono, got %d channels", header.NumChannels)
	}
	if header.SampleRate != requiredSampleRate {
		return fmt.Errorf("audio must be %d Hz, got %d", requiredSampleRate, header.SampleRate)
	}
	if header.BitsPerSample != requiredBitDepth {
		return fmt.Errorf("audio must be %d-bit, got %d", requiredBitDepth, header.BitsPerSample)
	}
	if header.ByteRate > 0 && header.DataSize/header.ByteRate > MaxDurationSeconds {
		return fmt.Errorf("audio exceeds %d seconds", MaxDurationSeconds)
	}
	return nil
}

// Transcribe handles POST /api/session/:id/voice.
func (h *VoiceHandler) Transcribe(c *gin.Context) {
	if config.AppConfig.GoogleServiceAccountFile == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "voice transcription is not configured"})
		return
	}

	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required", "details": err.Error()})
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != AllowedExtension {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid file type",
			"details": fmt.Sprintf("expected %s, got %s", AllowedExtension, ext),
		})
		return
	}

	audioData, err := io.ReadAll(io.LimitReader(file, MaxAudioFileSize))
	if err != nil {
		h.listenFailed(c, "failed to read audio file", err)
		return
	}
	wav, err := parseWaveHeader(audioData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio", "details": err.Error()})
		return
	}
	if err := validateWave(wav); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio", "details": err.Error()})
		return
	}

	languageCode := "en-US"
	if sess.Language() == models.LanguageHindi {
		languageCode = "hi-IN"
	}

	ctx := c.Request.Context()
	client, err := speech.NewClient(ctx, option.WithCredentialsFile(config.AppConfig.GoogleServiceAccountFile))
	if err != nil {
		h.listenFailed(c, "failed to initialize speech client", err)
		return
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   requiredSampleRate,
			LanguageCode:      languageCode,
			AudioChannelCount: requiredChannels,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		h.listenFailed(c, "speech recognition failed", err)
		return
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	text := strings.TrimSpace(transcript.String())
	sess.AppendVoiceTranscript(text)

	c.JSON(http.StatusOK, gin.H{
		"listening":  false,
		"transcript": text,
		"draft":      sess.Draft(),
	})
}

// listenFailed reports a recognition failure without touching the draft:
// the client only needs to reset its listening indicator.
func (h *VoiceHandler) listenFailed(c *gin.Context, message string, err error) {
	h.Logger.Warn(message, zap.Error(err))
	c.JSON(http.StatusOK, gin.H{"listening": false, "error": message})
}
