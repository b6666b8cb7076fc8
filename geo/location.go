package geo

// Location is the geolocation of a client IP.
type Location struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	RegionCode  string `json:"regionCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
	// Geolocation is [latitude, longitude].
	Geolocation [2]float64 `json:"geolocation"`
	ISP         string     `json:"isp"`
	Timezone    string     `json:"timezone"`
	Zip         string     `json:"zip"`
}

// lookupResponse is the ip-api.com JSON body.
type lookupResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Timezone    string  `json:"timezone"`
	Zip         string  `json:"zip"`
}

func (r lookupResponse) location() *Location {
	return &Location{
		IP:          r.Query,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		RegionCode:  r.Region,
		RegionName:  r.RegionName,
		City:        r.City,
		Geolocation: [2]float64{r.Lat, r.Lon},
		ISP:         r.ISP,
		Timezone:    r.Timezone,
		Zip:         r.Zip,
	}
}
