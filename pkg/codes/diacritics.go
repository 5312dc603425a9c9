package codes

// Diacritics maps the Latin letters with diacritics that appear in Czech,
// Slovak and a few neighbouring alphabets to their plain ASCII letter.
// Letters not listed here are left untouched by transliteration.
var Diacritics = map[rune]rune{
	'á': 'a', 'ä': 'a', 'â': 'a', 'ă': 'a',
	'č': 'c', 'ć': 'c', 'ç': 'c',
	'ď': 'd',
	'é': 'e', 'ě': 'e', 'ë': 'e', 'ę': 'e',
	'í': 'i', 'î': 'i',
	'ľ': 'l', 'ĺ': 'l',
	'ň': 'n', 'ń': 'n',
	'ó': 'o', 'ô': 'o', 'ö': 'o', 'ő': 'o',
	'ř': 'r', 'ŕ': 'r',
	'š': 's',
	'ť': 't',
	'ú': 'u', 'ů': 'u', 'ü': 'u', 'ű': 'u',
	'ý': 'y',
	'ž': 'z',

	'Á': 'A', 'Ä': 'A',
	'Č': 'C', 'Ć': 'C',
	'Ď': 'D',
	'É': 'E', 'Ě': 'E', 'Ë': 'E',
	'Í': 'I',
	'Ľ': 'L',
	'Ň': 'N',
	'Ó': 'O', 'Ö': 'O',
	'Ř': 'R',
	'Š': 'S',
	'Ť': 'T',
	'Ú': 'U', 'Ů': 'U', 'Ü': 'U',
	'Ý': 'Y',
	'Ž': 'Z',
}
