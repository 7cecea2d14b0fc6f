package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	AssemblyAIKey string

	OpenAIKey  string
	ChatModel  string
	EmbedModel string

	PineconeAPIKey    string
	PineconeIndexHost string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GoogleTTSKey string
	TTSVoice     string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	assemblyAIKey := os.Getenv("ASSEMBLYAI_API_KEY")
	if assemblyAIKey == "" {
		log.Println("Warning: ASSEMBLYAI_API_KEY not set - transcription will not work")
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - question generation and evaluation will not work")
	}
	chatModel := os.Getenv("OPENAI_CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	embedModel := os.Getenv("OPENAI_EMBED_MODEL")
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	pineconeKey := os.Getenv("PINECONE_API")
	if pineconeKey == "" {
		log.Println("Warning: PINECONE_API not set - summary retrieval will not work")
	}
	pineconeHost := os.Getenv("PINECONE_INDEX_HOST")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	ttsKey := os.Getenv("GOOGLE_TTS_API_KEY")
	if ttsKey == "" {
		log.Println("Warning: GOOGLE_TTS_API_KEY not set - speech synthesis will not work")
	}
	voice := os.Getenv("TTS_VOICE")
	if voice == "" {
		voice = "en-US-Neural2-D"
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:       addr,
		AssemblyAIKey:     assemblyAIKey,
		OpenAIKey:         openAIKey,
		ChatModel:         chatModel,
		EmbedModel:        embedModel,
		PineconeAPIKey:    pineconeKey,
		PineconeIndexHost: pineconeHost,
		RedisAddr:         redisAddr,
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		GoogleTTSKey:      ttsKey,
		TTSVoice:          voice,
	}
}
