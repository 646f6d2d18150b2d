package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Catalog holds deployment-specific overrides for the reason keyword tables
// and the tenant return-policy table. Empty sections keep the built-in defaults.
type Catalog struct {
	Keywords KeywordCatalog         `mapstructure:"keywords"`
	Policies map[string]PolicyEntry `mapstructure:"return_policies"`
}

// KeywordCatalog lists dispute-reason keywords per document category.
type KeywordCatalog struct {
	Fraud                []string `mapstructure:"fraud"`
	ProductNotReceived   []string `mapstructure:"product_not_received"`
	ProductNotAcceptable []string `mapstructure:"product_not_acceptable"`
	CreditNotProcessed   []string `mapstructure:"credit_not_processed"`
}

// Empty reports whether no keyword set was provided.
func (k KeywordCatalog) Empty() bool {
	return len(k.Fraud) == 0 && len(k.ProductNotReceived) == 0 &&
		len(k.ProductNotAcceptable) == 0 && len(k.CreditNotProcessed) == 0
}

// PolicyEntry is one tenant's return policy.
type PolicyEntry struct {
	Text    string `mapstructure:"text"`
	URL     string `mapstructure:"url"`
	Extract string `mapstructure:"extract"`
}

// LoadCatalog reads a YAML catalog file. An empty path yields an empty catalog.
func LoadCatalog(path string) (Catalog, error) {
	var cat Catalog
	if path == "" {
		return cat, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if err := v.Unmarshal(&cat); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return cat, nil
}
