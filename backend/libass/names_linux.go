package libass

var platformLibraryNames = []string{
	"libassmod.so",
	"libass.so",
	"libass.so.9",
}
