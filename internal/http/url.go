package http

import (
	"strings"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// BuildBaseURL returns protocol://host/version/ for management clients and
// protocol://host/version/cdn/ for delivery clients.
func BuildBaseURL(host, version string, useTLS bool, kind storyblok.ConsumerKind) string {
	protocol := "http://"
	if useTLS {
		protocol = "https://"
	}

	var b strings.Builder

	b.WriteString(protocol)
	b.WriteString(strings.Trim(host, "/"))
	b.WriteByte('/')
	b.WriteString(strings.Trim(version, "/"))

	if kind == storyblok.ContentDelivery {
		b.WriteByte('/')
		b.WriteString(constants.DeliveryPathSegment)
	}

	b.WriteByte('/')

	return b.String()
}

// resolve joins a relative API path onto the base URL.
func resolve(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
