package service_test

import (
	"testing"

	"github.com/massivemarketmanager/ms-go-trading/app/service"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := service.NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Passw0rd!" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !hasher.Verify("Passw0rd!", hash) {
		t.Error("expected verify to succeed for the right password")
	}
	if hasher.Verify("wrong", hash) {
		t.Error("expected verify to fail for the wrong password")
	}
}

func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	hasher := service.NewPasswordHasher(bcrypt.MinCost)

	if hasher.Verify("anything", "not-a-bcrypt-hash") {
		t.Error("malformed hash must not verify")
	}
	if hasher.Verify("anything", "") {
		t.Error("empty hash must not verify")
	}
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	weak := service.NewPasswordHasher(bcrypt.MinCost)
	strong := service.NewPasswordHasher(bcrypt.MinCost + 2)

	hash, err := weak.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if weak.NeedsRehash(hash) {
		t.Error("hash at current cost must not need a rehash")
	}
	if !strong.NeedsRehash(hash) {
		t.Error("hash below current cost must need a rehash")
	}
	if !strong.NeedsRehash("garbage") {
		t.Error("malformed hash must need a rehash")
	}
}

func TestPasswordHasher_DummyHash(t *testing.T) {
	hasher := service.NewPasswordHasher(10)

	// The dummy hash only exists to burn bcrypt time; it must be
	// well-formed so Verify runs the full comparison.
	if hasher.NeedsRehash(service.DummyHash) {
		t.Error("dummy hash must parse as a current-policy bcrypt hash")
	}
}

func TestPasswordHasher_CostClamped(t *testing.T) {
	hasher := service.NewPasswordHasher(99)

	hash, err := hasher.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost failed: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("expected out-of-range cost to fall back to %d, got %d", bcrypt.DefaultCost, cost)
	}
}
