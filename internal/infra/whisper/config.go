package whisper

type Config struct {
	ModelPath string
	Language  string
	Threads   int
}
