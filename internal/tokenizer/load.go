package tokenizer

import "os"

// LoadHFTokenizer reads a tokenizer.json file, plus an optional
// tokenizer_config.json, and builds the tokenizer. Vocabulary files
// can run to tens of megabytes, so the read path prefers mmap where
// the platform supports it; the mapping is released once parsed.
func LoadHFTokenizer(tokJSON, tokConfig string) (*HFTokenizer, error) {
	data, release, err := readFileShared(tokJSON)
	if err != nil {
		return nil, err
	}
	defer release()

	var cfg []byte
	if tokConfig != "" {
		if raw, err := os.ReadFile(tokConfig); err == nil {
			cfg = raw
		}
	}
	return LoadHFTokenizerBytes(data, cfg)
}
