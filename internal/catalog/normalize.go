package catalog

import "strings"

var turkishReplacer = strings.NewReplacer(
	"ç", "c", "Ç", "C",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
	"ö", "o", "Ö", "O",
	"ş", "s", "Ş", "S",
	"ü", "u", "Ü", "U",
)

// NormalizeName: Türkçe karakterleri ASCII'ye çevirir, küçük harfe indirir,
// fazla boşlukları tekler.
// Örn: "  ESPRESSO  Çekirdeği " -> "espresso cekirdegi"
func NormalizeName(s string) string {
	s = turkishReplacer.Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
