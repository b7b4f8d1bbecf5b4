// internal/testutil/fixtures.go
package testutil

// Fixture data para tests (valores primitivos solamente, sin dependencias de domain)

// FixtureAzureRecord es el record de ejemplo de una organización de GitHub.
const FixtureAzureRecord = `{"id":"org:github/azure","alias":"Azure","name":"azure",` +
	`"repoUrl":"https://github.com/azure/azure-cli.git","source":"github","type":"O",` +
	`"websiteUrl":"https://azure.com"}`

// FixtureAzureWhois es una respuesta WHOIS abreviada para azure.com.
const FixtureAzureWhois = `Domain Name: azure.com
Registrar: MarkMonitor, Inc.
Registrant Organization: Microsoft Corporation
Registrant Country: US`

// FixtureDomains contiene valores que reducen a un dominio registrable.
var FixtureDomains = map[string]string{
	"https://azure.com":                  "azure.com",
	"https://api.azure.com/v1":           "azure.com",
	"https://example.co.uk/path":         "example.co.uk",
	"http://test.example.com:8080":       "example.com",
	"https://user@sub.example.org/x?y=1": "example.org",
}

// FixtureNonDomains contiene candidatos que no son dominios.
var FixtureNonDomains = []string{
	"1.5",
	"v2.0.1",
	"192.168.1.1",
	"http://[2001:db8::1]/",
	"co.uk",
	"localhost",
	"not a domain.",
}
