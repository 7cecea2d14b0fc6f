// Package phoneme produces an approximate viseme timeline for synthesized
// speech, used by the client to drive facial blend shapes while the question
// audio plays.
package phoneme

import (
	"sort"
	"strings"
	"unicode"
)

// Frame is one blend-shape keyframe on the timeline.
type Frame struct {
	Time        float64 `json:"time"`
	Phoneme     string  `json:"phoneme"`
	JawOpen     float64 `json:"jawOpen"`
	MouthFunnel float64 `json:"mouthFunnel"`
	MouthPucker float64 `json:"mouthPucker"`
	TongueOut   float64 `json:"tongue_out"`
	TongueUp    float64 `json:"tongue_up"`
}

type blend struct {
	jawOpen, mouthFunnel, mouthPucker, tongueOut, tongueUp float64
}

// blendMap holds facial parameters per IPA phoneme.
var blendMap = map[string]blend{
	"p":  {0.2, 0.8, 0.6, 0.0, 0.0},
	"b":  {0.2, 0.8, 0.6, 0.0, 0.0},
	"m":  {0.2, 0.7, 0.7, 0.0, 0.0},
	"t":  {0.3, 0.2, 0.0, 0.0, 0.8},
	"d":  {0.3, 0.2, 0.0, 0.0, 0.8},
	"n":  {0.3, 0.2, 0.0, 0.0, 0.7},
	"k":  {0.4, 0.0, 0.0, 0.0, 0.9},
	"g":  {0.4, 0.0, 0.0, 0.0, 0.9},
	"ŋ":  {0.4, 0.0, 0.0, 0.0, 0.9},
	"f":  {0.2, 0.5, 0.2, 0.0, 0.0},
	"v":  {0.2, 0.5, 0.2, 0.0, 0.0},
	"θ":  {0.3, 0.3, 0.0, 0.6, 0.0},
	"ð":  {0.3, 0.3, 0.0, 0.6, 0.0},
	"s":  {0.3, 0.2, 0.0, 0.0, 0.7},
	"z":  {0.3, 0.2, 0.0, 0.0, 0.7},
	"ʃ":  {0.3, 0.5, 0.5, 0.0, 0.5},
	"ʒ":  {0.3, 0.5, 0.5, 0.0, 0.5},
	"h":  {0.4, 0.0, 0.0, 0.0, 0.0},
	"l":  {0.3, 0.1, 0.0, 0.0, 0.9},
	"r":  {0.3, 0.4, 0.5, 0.0, 0.4},
	"j":  {0.2, 0.2, 0.0, 0.0, 0.6},
	"w":  {0.2, 0.6, 0.8, 0.0, 0.0},
	"iː": {0.2, 0.1, 0.0, 0.0, 0.8},
	"ɪ":  {0.2, 0.1, 0.0, 0.0, 0.7},
	"e":  {0.3, 0.2, 0.0, 0.0, 0.6},
	"æ":  {0.5, 0.2, 0.0, 0.0, 0.4},
	"ʌ":  {0.4, 0.2, 0.0, 0.0, 0.5},
	"ɒ":  {0.6, 0.3, 0.0, 0.0, 0.3},
	"ɔː": {0.6, 0.5, 0.3, 0.0, 0.4},
	"ɑː": {0.7, 0.3, 0.0, 0.0, 0.3},
	"uː": {0.2, 0.7, 0.8, 0.0, 0.2},
	"ʊ":  {0.3, 0.6, 0.7, 0.0, 0.2},
	"ɜː": {0.4, 0.3, 0.2, 0.0, 0.5},
	"ə":  {0.3, 0.2, 0.0, 0.0, 0.4},
	"eɪ": {0.4, 0.2, 0.0, 0.0, 0.7},
	"aɪ": {0.5, 0.2, 0.0, 0.0, 0.7},
	"ɔɪ": {0.5, 0.4, 0.4, 0.0, 0.6},
	"aʊ": {0.6, 0.5, 0.6, 0.0, 0.4},
	"əʊ": {0.5, 0.5, 0.5, 0.0, 0.5},
	"ɪə": {0.4, 0.2, 0.0, 0.0, 0.7},
	"eə": {0.5, 0.2, 0.0, 0.0, 0.6},
	"ʊə": {0.5, 0.5, 0.4, 0.0, 0.5},
}

// digraphs maps common English letter pairs to IPA before single letters are
// considered. Longest-match wins.
var digraphs = map[string]string{
	"th": "θ",
	"sh": "ʃ",
	"ch": "ʃ",
	"ph": "f",
	"wh": "w",
	"ng": "ŋ",
	"ee": "iː",
	"ea": "iː",
	"oo": "uː",
	"ou": "aʊ",
	"ow": "aʊ",
	"ai": "eɪ",
	"ay": "eɪ",
	"oi": "ɔɪ",
	"oy": "ɔɪ",
	"er": "ɜː",
	"ar": "ɑː",
	"or": "ɔː",
}

var letters = map[byte]string{
	'a': "æ", 'e': "e", 'i': "ɪ", 'o': "ɒ", 'u': "ʌ",
	'b': "b", 'c': "k", 'd': "d", 'f': "f", 'g': "g", 'h': "h",
	'j': "ʒ", 'k': "k", 'l': "l", 'm': "m", 'n': "n", 'p': "p",
	'q': "k", 'r': "r", 's': "s", 't': "t", 'v': "v", 'w': "w",
	'x': "s", 'y': "j", 'z': "z",
}

var digraphKeys = sortedDigraphKeys()

func sortedDigraphKeys() []string {
	keys := make([]string, 0, len(digraphs))
	for k := range digraphs {
		keys = append(keys, k)
	}
	// match longest first, then stable order
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// split approximates the phoneme sequence of English text.
func split(text string) []string {
	var phonemes []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var clean []byte
		for _, r := range word {
			if r >= 'a' && r <= 'z' {
				clean = append(clean, byte(r))
			} else if unicode.IsLetter(r) {
				clean = append(clean, 'e') // non-ASCII letters get a neutral vowel
			}
		}
		i := 0
		for i < len(clean) {
			matched := false
			for _, dg := range digraphKeys {
				if i+len(dg) <= len(clean) && string(clean[i:i+len(dg)]) == dg {
					phonemes = append(phonemes, digraphs[dg])
					i += len(dg)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if p, ok := letters[clean[i]]; ok {
				phonemes = append(phonemes, p)
			}
			i++
		}
	}
	return phonemes
}

// Timeline spaces the text's phonemes evenly over the audio duration and
// attaches blend parameters. The last frame never exceeds the duration.
func Timeline(text string, duration float64) []Frame {
	phonemes := split(text)
	if len(phonemes) == 0 || duration <= 0 {
		return nil
	}
	step := duration / float64(len(phonemes))
	frames := make([]Frame, 0, len(phonemes))
	current := 0.0
	for _, ph := range phonemes {
		if current > duration {
			break
		}
		b := blendMap[ph]
		frames = append(frames, Frame{
			Time:        round2(current),
			Phoneme:     ph,
			JawOpen:     b.jawOpen,
			MouthFunnel: b.mouthFunnel,
			MouthPucker: b.mouthPucker,
			TongueOut:   b.tongueOut,
			TongueUp:    b.tongueUp,
		})
		current += step
	}
	return frames
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
