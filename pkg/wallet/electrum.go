package wallet

import (
	_ "embed"
	"encoding/binary"
	"strings"
)

//go:embed electrum1_words.txt
var electrum1WordList string

var (
	electrum1Words   = strings.Fields(electrum1WordList)
	electrum1Indexes = func() map[string]int {
		m := make(map[string]int, len(electrum1Words))
		for i, w := range electrum1Words {
			m[w] = i
		}
		return m
	}()
)

// electrum1WordsToEntropy decodes every triplet of words into 4 bytes. A 12
// words mnemonic gives back the 16 bytes of the original seed.
func electrum1WordsToEntropy(words []string) ([]byte, error) {
	if len(words) <= 0 || len(words)%3 != 0 {
		return nil, ErrInvalidMnemonic
	}

	n := int64(len(electrum1Words))
	out := make([]byte, 0, len(words)/3*4)
	for i := 0; i < len(words); i += 3 {
		idx := make([]int64, 3)
		for j := range idx {
			v, ok := electrum1Indexes[words[i+j]]
			if !ok {
				return nil, ErrInvalidMnemonic
			}
			idx[j] = int64(v)
		}

		x := idx[0] +
			n*mod(idx[1]-idx[0], n) +
			n*n*mod(idx[2]-idx[1], n)
		if x > 0xffffffff {
			return nil, ErrInvalidMnemonic
		}

		chunk := make([]byte, 4)
		binary.BigEndian.PutUint32(chunk, uint32(x))
		out = append(out, chunk...)
	}
	return out, nil
}

// electrum1EntropyToWords is the inverse of electrum1WordsToEntropy.
func electrum1EntropyToWords(entropy []byte) ([]string, error) {
	if len(entropy) <= 0 || len(entropy)%4 != 0 {
		return nil, ErrInvalidMnemonic
	}

	n := int64(len(electrum1Words))
	words := make([]string, 0, len(entropy)/4*3)
	for i := 0; i < len(entropy); i += 4 {
		x := int64(binary.BigEndian.Uint32(entropy[i : i+4]))
		w1 := x % n
		w2 := (x/n + w1) % n
		w3 := (x/n/n + w2) % n
		words = append(
			words, electrum1Words[w1], electrum1Words[w2], electrum1Words[w3],
		)
	}
	return words, nil
}

func mod(a, n int64) int64 {
	return ((a % n) + n) % n
}
