package testutil

// Fixed record identifiers and text for deterministic tests.
const (
	TestCVEID1 = "CVE-2024-21762"
	TestCVEID2 = "CVE-2024-3400"
	TestCVEID3 = "CVE-2023-4863"

	TestDescription = "A heap-based buffer overflow in the WebP codec allows a remote attacker " +
		"to perform an out of bounds memory write via a crafted HTML page."
)
