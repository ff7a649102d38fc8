package tokenizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// HFTokenizer is a byte-level BPE tokenizer loaded from a HuggingFace
// tokenizer.json file. The vocabulary, merge ranks and pretokenizer
// pattern are immutable after load; only the BPE cache is mutable, so
// clones share everything but the cache.
type HFTokenizer struct {
	encoder      map[string]int
	decoder      []string
	bpeRanks     map[bpePair]int
	cache        map[string][]string
	byteEncoder  map[byte]string
	byteDecoder  map[string]byte
	pattern      *regexp.Regexp
	addBOS       bool
	addEOS       bool
	bosID        int
	eosID        int
	unkID        int
	ignoreMerges bool
	special      []string
	specialIDs   map[int]bool
}

var _ Tokenizer = (*HFTokenizer)(nil)

// piece is one sub-token of a single sequence before post-processing.
type piece struct {
	id      uint32
	token   string
	off     Offset
	special bool
}

type hfTokenizerJSON struct {
	Model struct {
		Type         string         `json:"type"`
		Vocab        map[string]int `json:"vocab"`
		Merges       []any          `json:"merges"`
		IgnoreMerges bool           `json:"ignore_merges"`
		UnkToken     string         `json:"unk_token"`
	} `json:"model"`
	PreTokenizer struct {
		Type          string `json:"type"`
		Pretokenizers []struct {
			Type    string `json:"type"`
			Pattern struct {
				Regex string `json:"Regex"`
			} `json:"pattern"`
		} `json:"pretokenizers"`
	} `json:"pre_tokenizer"`
	PostProcessor struct {
		Type       string `json:"type"`
		Processors []struct {
			Type          string `json:"type"`
			SpecialTokens map[string]struct {
				IDs []int `json:"ids"`
			} `json:"special_tokens"`
		} `json:"processors"`
	} `json:"post_processor"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

type hfTokenizerConfig struct {
	AddBOS bool   `json:"add_bos_token"`
	AddEOS bool   `json:"add_eos_token"`
	BOS    string `json:"bos_token"`
	EOS    string `json:"eos_token"`
}

// LoadHFTokenizerBytes builds a tokenizer from the raw contents of
// tokenizer.json and an optional tokenizer_config.json.
func LoadHFTokenizerBytes(tokJSON []byte, tokConfig []byte) (*HFTokenizer, error) {
	var tj hfTokenizerJSON
	if err := json.Unmarshal(tokJSON, &tj); err != nil {
		return nil, err
	}
	if strings.ToUpper(tj.Model.Type) != "BPE" {
		return nil, fmt.Errorf("unsupported tokenizer model: %s", tj.Model.Type)
	}

	encoder := make(map[string]int, len(tj.Model.Vocab))
	maxID := -1
	for tok, id := range tj.Model.Vocab {
		encoder[tok] = id
		if id > maxID {
			maxID = id
		}
	}
	for _, at := range tj.AddedTokens {
		if at.ID > maxID {
			maxID = at.ID
		}
	}
	decoder := make([]string, maxID+1)
	for tok, id := range tj.Model.Vocab {
		decoder[id] = tok
	}
	specialIDs := make(map[int]bool)
	for _, at := range tj.AddedTokens {
		decoder[at.ID] = at.Content
		encoder[at.Content] = at.ID
		if at.Special {
			specialIDs[at.ID] = true
		}
	}

	bpeRanks := make(map[bpePair]int, len(tj.Model.Merges))
	rank := 0
	for _, raw := range tj.Model.Merges {
		line := ""
		switch v := raw.(type) {
		case string:
			line = v
		case []any:
			if len(v) == 2 {
				a, aok := v[0].(string)
				b, bok := v[1].(string)
				if aok && bok {
					line = a + " " + b
				}
			}
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			continue
		}
		p := bpePair{A: parts[0], B: parts[1]}
		if _, ok := bpeRanks[p]; !ok {
			bpeRanks[p] = rank
			rank++
		}
	}

	byteEncoder, byteDecoder := bytesToUnicode()
	pat := buildHFPattern(tj.PreTokenizer)

	var cfg hfTokenizerConfig
	if len(tokConfig) > 0 {
		_ = json.Unmarshal(tokConfig, &cfg)
	}

	addBOS := cfg.AddBOS
	addEOS := cfg.AddEOS
	bosID := -1
	eosID := -1
	if cfg.BOS != "" {
		if id, ok := encoder[cfg.BOS]; ok {
			bosID = id
		}
	}
	if cfg.EOS != "" {
		if id, ok := encoder[cfg.EOS]; ok {
			eosID = id
		}
	}
	// If TemplateProcessing defines a BOS token, use it.
	for _, proc := range tj.PostProcessor.Processors {
		if proc.Type == "TemplateProcessing" {
			for _, st := range proc.SpecialTokens {
				if len(st.IDs) > 0 {
					bosID = st.IDs[0]
					addBOS = true
					break
				}
			}
		}
	}
	if bosID >= 0 {
		specialIDs[bosID] = true
	}
	if eosID >= 0 {
		specialIDs[eosID] = true
	}

	unkID := -1
	if tj.Model.UnkToken != "" {
		if id, ok := encoder[tj.Model.UnkToken]; ok {
			unkID = id
		}
	}

	return &HFTokenizer{
		encoder:      encoder,
		decoder:      decoder,
		bpeRanks:     bpeRanks,
		cache:        make(map[string][]string),
		byteEncoder:  byteEncoder,
		byteDecoder:  byteDecoder,
		pattern:      pat,
		addBOS:       addBOS,
		addEOS:       addEOS,
		bosID:        bosID,
		eosID:        eosID,
		unkID:        unkID,
		ignoreMerges: tj.Model.IgnoreMerges,
		special:      collectSpecials(decoder, specialIDs),
		specialIDs:   specialIDs,
	}, nil
}

// Clone shares the immutable vocabulary and merge tables and gives the
// copy a fresh BPE cache. The cache is the only mutable state, so the
// clone can run on another goroutine without locking.
func (t *HFTokenizer) Clone() Tokenizer {
	c := *t
	c.cache = make(map[string][]string)
	return &c
}

// Encode tokenizes the input and returns the raw encoding with byte
// offsets, token type ids and the special-token mask. When trunc is
// non-nil, the encoding is bounded to trunc.MaxLength tokens including
// the special tokens added here.
func (t *HFTokenizer) Encode(in EncodeInput, addSpecialTokens bool, trunc *Truncation) (Encoding, error) {
	if trunc != nil {
		if err := trunc.validate(); err != nil {
			return Encoding{}, err
		}
	}

	seqA, err := t.encodeSequence(in.Text)
	if err != nil {
		return Encoding{}, err
	}
	var seqB []piece
	if in.IsPair {
		seqB, err = t.encodeSequence(in.Pair)
		if err != nil {
			return Encoding{}, err
		}
	}

	addedBOS := addSpecialTokens && t.addBOS && t.bosID >= 0
	addedEOS := addSpecialTokens && t.addEOS && t.eosID >= 0
	added := 0
	if addedBOS {
		added++
	}
	if addedEOS {
		added++
		if in.IsPair {
			added++
		}
	}

	if trunc != nil {
		seqA, seqB = truncateSequences(seqA, seqB, in.IsPair, trunc.MaxLength-added, trunc)
	}

	var enc Encoding
	if addedBOS {
		enc.push(uint32(t.bosID), 0, Offset{}, true, t.decoder[t.bosID])
	}
	for _, p := range seqA {
		enc.push(p.id, 0, p.off, p.special, p.token)
	}
	if addedEOS {
		enc.push(uint32(t.eosID), 0, Offset{}, true, t.decoder[t.eosID])
	}
	if in.IsPair {
		for _, p := range seqB {
			enc.push(p.id, 1, p.off, p.special, p.token)
		}
		if addedEOS {
			enc.push(uint32(t.eosID), 1, Offset{}, true, t.decoder[t.eosID])
		}
	}
	return enc, nil
}

// encodeSequence tokenizes one sequence, tracking the byte span every
// sub-token covers in the original text. Byte-level BPE maps each
// input byte to exactly one rune, so a BPE piece of n runes spans n
// bytes of the source.
func (t *HFTokenizer) encodeSequence(text string) ([]piece, error) {
	var out []piece
	for _, part := range splitSpecials(text, t.special) {
		if part.isSpecial {
			id, ok := t.encoder[part.text]
			if !ok {
				return nil, fmt.Errorf("unknown special token: %q", part.text)
			}
			out = append(out, piece{
				id:      uint32(id),
				token:   part.text,
				off:     Offset{Start: part.start, Stop: part.start + len(part.text)},
				special: true,
			})
			continue
		}
		for _, m := range t.pattern.FindAllStringIndex(part.text, -1) {
			word := part.text[m[0]:m[1]]
			cursor := part.start + m[0]
			encoded := t.byteEncode(word)
			for _, bpeTok := range t.bpe(encoded) {
				span := utf8.RuneCountInString(bpeTok)
				off := Offset{Start: cursor, Stop: cursor + span}
				cursor += span

				id, ok := t.encoder[bpeTok]
				if !ok {
					if t.unkID < 0 {
						return nil, fmt.Errorf("unknown token: %q", bpeTok)
					}
					id = t.unkID
				}
				out = append(out, piece{id: uint32(id), token: bpeTok, off: off})
			}
		}
	}
	return out, nil
}

// Decode converts ids back to text. With skipSpecialTokens set, tokens
// flagged special in the vocabulary are omitted from the output.
func (t *HFTokenizer) Decode(ids []uint32, skipSpecialTokens bool) (string, error) {
	var b []byte
	for _, id := range ids {
		if int(id) >= len(t.decoder) {
			return "", fmt.Errorf("token id out of range: %d", id)
		}
		token := t.decoder[id]
		if t.specialIDs[int(id)] || isSpecialToken(token) {
			if skipSpecialTokens {
				continue
			}
			b = append(b, token...)
			continue
		}
		for _, r := range token {
			if by, ok := t.byteDecoder[string(r)]; ok {
				b = append(b, by)
			} else {
				b = append(b, string(r)...)
			}
		}
	}
	return string(b), nil
}

// TokenString returns the vocabulary string for a token id, or "" when
// the id is out of range.
func (t *HFTokenizer) TokenString(id int) string {
	if id < 0 || id >= len(t.decoder) {
		return ""
	}
	return t.decoder[id]
}

func (t *HFTokenizer) byteEncode(s string) string {
	var b strings.Builder
	for _, by := range []byte(s) {
		b.WriteString(t.byteEncoder[by])
	}
	return b.String()
}

func (t *HFTokenizer) bpe(token string) []string {
	if v, ok := t.cache[token]; ok {
		return v
	}
	if t.ignoreMerges {
		if _, ok := t.encoder[token]; ok {
			out := []string{token}
			t.cache[token] = out
			return out
		}
	}
	word := splitRunes(token)
	pairs := getPairs(word)
	for len(pairs) > 0 {
		bestRank := int(^uint(0) >> 1)
		bestPair := bpePair{}
		found := false
		for p := range pairs {
			if rank, ok := t.bpeRanks[p]; ok {
				if rank < bestRank {
					bestRank = rank
					bestPair = p
					found = true
				}
			}
		}
		if !found {
			break
		}
		word = mergePair(word, bestPair)
		if len(word) == 1 {
			break
		}
		pairs = getPairs(word)
	}
	t.cache[token] = word
	return word
}

func buildHFPattern(pre struct {
	Type          string `json:"type"`
	Pretokenizers []struct {
		Type    string `json:"type"`
		Pattern struct {
			Regex string `json:"Regex"`
		} `json:"pattern"`
	} `json:"pretokenizers"`
}) *regexp.Regexp {
	// Default to GPT2-ish regex.
	pat := `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`
	if pre.Type == "Sequence" {
		for _, p := range pre.Pretokenizers {
			if p.Type == "Split" && p.Pattern.Regex != "" {
				pat = p.Pattern.Regex
				break
			}
		}
	}
	// Llama3-style regexes use lookahead not supported by Go. Replace with the llama.cpp variant.
	if strings.Contains(pat, "(?!\\S)") || strings.Contains(pat, "(?i:") {
		pat = `(?:'[sS]|'[tT]|'[rR][eE]|'[vV][eE]|'[mM]|'[lL][lL]|'[dD])|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+`
	}
	return regexp.MustCompile(pat)
}
