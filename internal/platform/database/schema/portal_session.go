package schema

// PortalSessionTable represents the 'portal.session' table
type PortalSessionTable struct {
	Table           string
	ID              string
	TokenHash       string
	UpstreamToken   string
	AccountType     string
	ProfessionalsID string
	AgencyID        string
	ProfileID       string
	UserName        string
	Email           string
	FirstName       string
	LastName        string
	MobileNumber    string
	IPAddress       string
	UserAgent       string
	IsRevoked       string
	ExpiresAt       string
	RevokedAt       string
	CreatedAt       string
}

// PortalSession is the schema definition for portal.session
var PortalSession = PortalSessionTable{
	Table:           "portal.session",
	ID:              "id",
	TokenHash:       "tokenhash",
	UpstreamToken:   "upstreamtoken",
	AccountType:     "accounttype",
	ProfessionalsID: "professionalsid",
	AgencyID:        "agencyid",
	ProfileID:       "profileid",
	UserName:        "username",
	Email:           "email",
	FirstName:       "firstname",
	LastName:        "lastname",
	MobileNumber:    "mobilenumber",
	IPAddress:       "ipaddress",
	UserAgent:       "useragent",
	IsRevoked:       "isrevoked",
	ExpiresAt:       "expiresat",
	RevokedAt:       "revokedat",
	CreatedAt:       "createdat",
}

// Columns returns all standard column names
func (t PortalSessionTable) Columns() []string {
	return []string{
		t.ID, t.TokenHash, t.UpstreamToken, t.AccountType, t.ProfessionalsID,
		t.AgencyID, t.ProfileID, t.UserName, t.Email, t.FirstName, t.LastName,
		t.MobileNumber, t.IPAddress, t.UserAgent, t.IsRevoked, t.ExpiresAt,
		t.RevokedAt, t.CreatedAt,
	}
}
