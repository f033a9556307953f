package remote

// Protocol selects the transport backend
type Protocol string

const (
	ProtocolSFTP Protocol = "sftp"
	ProtocolS3   Protocol = "s3"
)

// Params carries everything a backend needs to construct itself.
// Which fields apply depends on the protocol.
type Params struct {
	Protocol Protocol

	// SSH/SFTP
	Host        string
	Port        int
	Username    string
	Password    string
	KeyPath     string
	KeyPassword string
	EntryDir    string // initial remote working directory, empty for backend default

	// S3
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}
