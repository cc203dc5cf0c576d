package forwarder

// Wire types returned by the forwarder's API. Field sets mirror what the
// provider actually sends; everything is read-only on our side.

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type Party struct {
	Name string `json:"name"`
}

type Location struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
}

type Reference struct {
	Reference string `json:"reference"`
	Role      string `json:"role"`
}

type Equipment struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type Emission struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Shipment struct {
	ID                  int64       `json:"shipmentId"`
	Status              string      `json:"status"`
	OriginParty         Party       `json:"originParty"`
	OriginLocation      Location    `json:"originLocation"`
	DestinationParty    Party       `json:"destinationParty"`
	DestinationLocation Location    `json:"destinationLocation"`
	MainModality        string      `json:"mainModality"`
	References          []Reference `json:"references"`
	Equipment           Equipment   `json:"equipment"`
	Emission            Emission    `json:"emission"`
}

type Event struct {
	Timestamp   string `json:"timestamp"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

type Document struct {
	ID          int64  `json:"documentId"`
	Type        string `json:"documentType"`
	Number      string `json:"documentNumber,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type Invoice struct {
	ID          int64   `json:"invoiceId"`
	Number      string  `json:"invoiceNumber"`
	InvoiceDate string  `json:"invoiceDate"`
	DueDate     string  `json:"dueDate,omitempty"`
	Status      string  `json:"invoiceStatus"`
	Currency    string  `json:"currency,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
	OpenAmount  float64 `json:"openAmount"`
	ShipmentIDs []int64 `json:"shipmentIds,omitempty"`
}
