package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rendis/remoteflow/pkg/schema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Endpoint is the remote server address stored on the node.
type Endpoint struct {
	Host string `json:"host" validate:"required,ip|hostname"`
	Port int    `json:"port" validate:"min=1,max=65535"`
}

// Validate checks the endpoint the way the settings dialog does.
func (e Endpoint) Validate() error {
	if err := validate.Struct(e); err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid remote endpoint").
			WithCause(err).
			WithDetails(map[string]any{"host": e.Host, "port": e.Port})
	}
	return nil
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Masked hides the address for display: the middle octets of an IPv4 host and the
// whole port are starred out; any other host is fully starred.
func (e Endpoint) Masked() string {
	host := "***.***.***"
	if parts := strings.Split(e.Host, "."); len(parts) == 4 {
		host = parts[0] + ".***.***." + parts[3]
	}
	return host + ":****"
}

// parseEndpoint reads an Endpoint from raw field values.
func parseEndpoint(host, port string) (Endpoint, error) {
	p, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return Endpoint{}, schema.NewErrorf(schema.ErrCodeValidation, "remote port %q is not a number", port).WithCause(err)
	}
	e := Endpoint{Host: strings.TrimSpace(host), Port: p}
	return e, e.Validate()
}
