package shared

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// cli errors
const (
	ErrorCreateFile  = Error("could not create the file")
	ErrorEncodeFile  = Error("could not encode to file")
	ErrMissingConfig = Error("missing required configuration")
)

// resolution errors, recovered per record
const (
	ErrFolderNotFound    = Error("folder not found")
	ErrSoundFileNotFound = Error("sound file not found")
	ErrSoundFileTooLarge = Error("sound file too large")
)

// repository errors
const ErrSimfileNotFound = Error("simfile not found")
const ErrInvalidName = Error("invalid name")

// storage errors
const ErrObjectExists = Error("object already exists")
