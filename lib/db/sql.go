package db

var selectCategoryOfRelease = `
SELECT
	categories_id
FROM
	releases
WHERE
	id = $1
LIMIT 1
`

var deleteRelease = `
SELECT delete_release($1, $2)
`

var selectEarliestPostDate = `
SELECT
	postdate
FROM
	releases
ORDER BY
	postdate ASC
LIMIT 1
`

var selectLatestPostDate = `
SELECT
	postdate
FROM
	releases
ORDER BY
	postdate DESC
LIMIT 1
`
