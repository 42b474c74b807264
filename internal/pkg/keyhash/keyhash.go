package keyhash

import "golang.org/x/crypto/bcrypt"

// Hash returns the bcrypt hash stored in auth.api_key_hashes for a plain api key.
func Hash(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Match(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
