package phpserialize

// PHP serialize wire tags. Every value opens with exactly one of these.
const (
	tagNull   byte = 'N' // N;
	tagBool   byte = 'b' // b:0; / b:1;
	tagInt    byte = 'i' // i:<digits>;
	tagFloat  byte = 'd' // d:<floattext>;
	tagString byte = 's' // s:<bytelen>:"<bytes>";
	tagArray  byte = 'a' // a:<count>:{<pairs>}
	tagObject byte = 'O' // O:<namelen>:"<name>":<count>:{<pairs>}
)

// Delimiters.
const (
	delimColon byte = ':'
	delimSemi  byte = ';'
	delimQuote byte = '"'
	delimOpen  byte = '{'
	delimClose byte = '}'
)

// StdClass is PHP's anonymous object class name.
const StdClass = "stdClass"

// TagName returns a human-readable name for a tag byte.
func TagName(tag byte) string {
	switch tag {
	case tagNull:
		return "Null"
	case tagBool:
		return "Boolean"
	case tagInt:
		return "Integer"
	case tagFloat:
		return "Floating"
	case tagString:
		return "String"
	case tagArray:
		return "Array"
	case tagObject:
		return "Object"
	default:
		return "Unknown"
	}
}
