// Package auth logs a browser session into the portal.
//
// The portal only shows a single "Se connecter" button to anonymous
// visitors, so the check is a count of those buttons on the target page. No
// verification is made after submitting credentials; a rejected login shows
// up later as missing metadata on the target page.
package auth
