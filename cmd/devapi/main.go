// Command devapi serves an in-memory stand-in for the social API so the
// front end and postctl can run without network access.
//
// It prints one account per seeded profile; log in with any of them using
// the password given by -password.
package main

import (
	"flag"
	"fmt"
	"log"

	"postboard/internal/testutil"
)

func main() {
	addr := flag.String("addr", ":8390", "listen address")
	profiles := flag.Int("profiles", 3, "number of profiles to seed")
	perProfile := flag.Int("posts", 15, "posts seeded per profile")
	password := flag.String("password", "postboard-dev", "password of every seeded account")
	flag.Parse()

	fake := testutil.NewFakeAPI()
	for i := 0; i < *profiles; i++ {
		p := fake.AddProfile(testutil.NewProfile(), *password)
		fake.SeedPosts(*perProfile, p.Name)
		fmt.Printf("account: %s <%s>\n", p.Name, p.Email)
	}
	fmt.Printf("api key: %s\n", fake.APIKey)
	fmt.Printf("listening on %s\n", *addr)

	log.Fatal(fake.App().Listen(*addr))
}
