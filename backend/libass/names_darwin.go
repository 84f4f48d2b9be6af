package libass

var platformLibraryNames = []string{
	"libassmod.dylib",
	"libassmod.so",
	"libass.dylib",
	"libass.9.dylib",
	"libass.so",
}
